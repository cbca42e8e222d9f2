package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/conduit-api/internal/database"
	"github.com/redmonkez12/conduit-api/internal/user"
)

var (
	ErrNotFound      = errors.New("article not found")
	ErrDuplicateSlug = errors.New("article with same title already exists")
)

// Repository handles article persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new article. The returned article has no Author loaded.
func (r *Repository) Create(ctx context.Context, in NewArticle) (*Article, error) {
	now := time.Now().UTC()
	dbArticle := &database.Article{
		ID:          uuid.New(),
		Slug:        in.Slug,
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		AuthorID:    in.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.db.NewInsert().Model(dbArticle).Exec(ctx); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	return mapDBArticleToModel(dbArticle), nil
}

// GetBySlug retrieves an article and its author by slug
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	dbArticle := new(database.Article)
	err := r.db.NewSelect().
		Model(dbArticle).
		Relation("Author").
		Where("a.slug = ?", slug).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article by slug: %w", err)
	}

	return mapDBArticleToModel(dbArticle), nil
}

func mapDBArticleToModel(dba *database.Article) *Article {
	a := &Article{
		ID:          dba.ID,
		Slug:        dba.Slug,
		Title:       dba.Title,
		Description: dba.Description,
		Body:        dba.Body,
		AuthorID:    dba.AuthorID,
		CreatedAt:   dba.CreatedAt,
		UpdatedAt:   dba.UpdatedAt,
	}
	if dba.Author != nil {
		a.Author = user.FromRecord(dba.Author)
	}
	return a
}
