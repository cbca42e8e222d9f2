package article

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/redmonkez12/conduit-api/internal/auth"
	"github.com/redmonkez12/conduit-api/internal/httputil"
	"github.com/redmonkez12/conduit-api/internal/logging"
)

var tracer = otel.Tracer("github.com/redmonkez12/conduit-api/internal/article")

// Handler contains HTTP handlers for article endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// NewArticleRequest represents the article fields of a create request
type NewArticleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
}

// CreateArticleRequest represents the create article request body
type CreateArticleRequest struct {
	Article NewArticleRequest `json:"article"`
}

// Profile is the public view of an article author
type Profile struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// ArticleBody represents an article in API responses
type ArticleBody struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Author      Profile   `json:"author"`
}

// SingleArticleResponse wraps a single article
type SingleArticleResponse struct {
	Article ArticleBody `json:"article"`
}

// Create handles article creation
// @Summary      Create article
// @Description  Publish a new article authored by the current user. The slug is derived from the title.
// @Tags         articles
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        request body CreateArticleRequest true "Article"
// @Success      201 {object} SingleArticleResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      403 {object} httputil.ErrorResponse "Not authenticated"
// @Failure      409 {object} httputil.ErrorResponse "Slug already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /articles [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "article.Create")
	defer span.End()

	logger := logging.GetLoggerFromContext(ctx)

	author, ok := auth.UserFromContext(ctx)
	if !ok {
		logger.Error("create article reached without an authenticated user")
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeNotAuthenticated, http.StatusForbidden)
		return
	}

	var req CreateArticleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid create article request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(ctx, author, CreateInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateSlug):
			logger.Warn("create article failed: slug already exists")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeSlugAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrTitleRequired),
			errors.Is(err, ErrDescriptionRequired),
			errors.Is(err, ErrBodyRequired),
			errors.Is(err, ErrInvalidTitle):
			logger.Warn("create article failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "create article failed")
			logger.Error("create article failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create article", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	span.SetAttributes(attribute.String("article.slug", created.Slug))
	logger.Info("article created", "slug", created.Slug)

	httputil.RespondJSON(w, SingleArticleResponse{Article: toArticleBody(created)}, http.StatusCreated)
}

func toArticleBody(a *Article) ArticleBody {
	body := ArticleBody{
		Slug:        a.Slug,
		Title:       a.Title,
		Description: a.Description,
		Body:        a.Body,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Author != nil {
		body.Author = Profile{
			Username: a.Author.Username,
			Bio:      a.Author.Bio,
			Image:    a.Author.Image,
		}
	}
	return body
}
