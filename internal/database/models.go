package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Email        string    `bun:"email,notnull,unique"`
	Username     string    `bun:"username,notnull"`
	Bio          *string   `bun:"bio"`
	Image        *string   `bun:"image"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// Article is the articles table row.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Slug        string    `bun:"slug,notnull,unique"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,notnull"`
	Body        string    `bun:"body,notnull"`
	AuthorID    uuid.UUID `bun:"author_id,notnull,type:uuid"`
	Author      *User     `bun:"rel:belongs-to,join:author_id=id"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}
