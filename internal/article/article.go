package article

import (
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/conduit-api/internal/user"
)

type Article struct {
	ID          uuid.UUID
	Slug        string
	Title       string
	Description string
	Body        string
	AuthorID    uuid.UUID
	Author      *user.User
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewArticle holds the values needed to insert an article.
type NewArticle struct {
	AuthorID    uuid.UUID
	Slug        string
	Title       string
	Description string
	Body        string
}
