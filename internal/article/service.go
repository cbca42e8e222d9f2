package article

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redmonkez12/conduit-api/internal/logging"
	"github.com/redmonkez12/conduit-api/internal/user"
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrBodyRequired        = errors.New("body is required")
	ErrInvalidTitle        = errors.New("title must contain at least one letter or digit")
)

// Store defines the article persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, in NewArticle) (*Article, error)
	GetBySlug(ctx context.Context, slug string) (*Article, error)
}

// CreateInput is the user-supplied content of a new article.
type CreateInput struct {
	Title       string
	Description string
	Body        string
}

// Service handles article business logic
type Service struct {
	articles Store
	logger   *logging.Logger
}

func NewService(articles Store, logger *logging.Logger) *Service {
	return &Service{articles: articles, logger: logger}
}

// Create publishes a new article by author. The slug is derived from the
// title and must be unused.
func (s *Service) Create(ctx context.Context, author *user.User, in CreateInput) (*Article, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, ErrTitleRequired
	case strings.TrimSpace(in.Description) == "":
		return nil, ErrDescriptionRequired
	case strings.TrimSpace(in.Body) == "":
		return nil, ErrBodyRequired
	}

	slug := Slugify(title)
	if slug == "" {
		return nil, ErrInvalidTitle
	}

	if _, err := s.articles.GetBySlug(ctx, slug); err == nil {
		return nil, ErrDuplicateSlug
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	created, err := s.articles.Create(ctx, NewArticle{
		AuthorID:    author.ID,
		Slug:        slug,
		Title:       title,
		Description: in.Description,
		Body:        in.Body,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	created.Author = author
	s.logger.Debug("article created", "slug", slug, "author_id", author.ID)

	return created, nil
}
