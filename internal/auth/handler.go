package auth

import (
	"errors"
	"net"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/redmonkez12/conduit-api/internal/httputil"
	"github.com/redmonkez12/conduit-api/internal/logging"
	"github.com/redmonkez12/conduit-api/internal/user"
)

var tracer = otel.Tracer("github.com/redmonkez12/conduit-api/internal/auth")

// Handler contains HTTP handlers for account endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
}

// NewHandler creates the account handlers. rateLimiter may be nil, which
// disables rate limiting.
func NewHandler(service *Service, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// NewUserRequest represents the user fields of a registration request
type NewUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	User NewUserRequest `json:"user"`
}

// LoginUserRequest represents the user fields of a login request
type LoginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	User LoginUserRequest `json:"user"`
}

// UpdateUserFields represents the optional user fields of an update request.
// Omitted or null fields are left unchanged.
type UpdateUserFields struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// UpdateUserRequest represents the update user request body
type UpdateUserRequest struct {
	User UpdateUserFields `json:"user"`
}

// UserBody represents the current user in API responses
type UserBody struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
	Token    string  `json:"token"`
}

// UserResponse wraps the current user
type UserResponse struct {
	User UserBody `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account and return it with an access token.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request, validation error or email already registered"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "auth.Register")
	defer span.End()

	logger := logging.GetLoggerFromContext(ctx)

	if !h.allow(w, r.WithContext(ctx), "register") {
		return
	}

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.User.Email})

	newUser, token, err := h.service.Register(ctx, RegisterInput{
		Email:    req.User.Email,
		Username: req.User.Username,
		Password: req.User.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already registered")
			httputil.RespondErrorWithCode(w, "user with email already registered", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
		case IsInvalidInput(err):
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			internalError(span, err)
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, toUserResponse(newUser, token), http.StatusCreated)
}

// Login handles user login
// @Summary      Login with email and password
// @Description  Authenticate a user and return it with an access token.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body or credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "auth.Login")
	defer span.End()

	logger := logging.GetLoggerFromContext(ctx)

	if !h.allow(w, r.WithContext(ctx), "login") {
		return
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.User.Email})

	existingUser, token, err := h.service.Login(ctx, req.User.Email, req.User.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "could not login", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		internalError(span, err)
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", existingUser.ID)

	h.resetLimit(r.WithContext(ctx), "login")

	httputil.RespondJSON(w, toUserResponse(existingUser, token), http.StatusOK)
}

// CurrentUser returns the authenticated user
// @Summary      Get current user
// @Description  Return the user the presented token belongs to.
// @Tags         users
// @Produce      json
// @Security     TokenAuth
// @Success      200 {object} UserResponse
// @Failure      403 {object} httputil.ErrorResponse "Not authenticated"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	current, ok := UserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeNotAuthenticated, http.StatusForbidden)
		return
	}
	token, _ := TokenFromContext(r.Context())

	httputil.RespondJSON(w, toUserResponse(current, token), http.StatusOK)
}

// UpdateCurrentUser applies a partial update to the authenticated user
// @Summary      Update current user
// @Description  Update the provided fields of the current user. Omitted fields are unchanged; an empty bio or image clears it.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     TokenAuth
// @Param        request body UpdateUserRequest true "Fields to update"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      403 {object} httputil.ErrorResponse "Not authenticated"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      409 {object} httputil.ErrorResponse "Email already in use"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /user [put]
func (h *Handler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "auth.UpdateCurrentUser")
	defer span.End()

	logger := logging.GetLoggerFromContext(ctx)

	current, ok := UserFromContext(ctx)
	if !ok {
		httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeNotAuthenticated, http.StatusForbidden)
		return
	}
	token, _ := TokenFromContext(ctx)

	var req UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid update user request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateUser(ctx, current, UpdateInput{
		Email:    req.User.Email,
		Username: req.User.Username,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("update user failed: email already in use")
			httputil.RespondErrorWithCode(w, "user with this email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("update user failed: user vanished")
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case IsInvalidInput(err):
			logger.Warn("update user failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			internalError(span, err)
			logger.Error("update user failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to update user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user updated successfully")

	httputil.RespondJSON(w, toUserResponse(updated, token), http.StatusOK)
}

// allow applies the per-IP rate limit for purpose and writes a 429 when it is
// exceeded. Limiter errors are logged and the request is let through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if h.rateLimiter == nil {
		return true
	}

	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	allowed, err := h.rateLimiter.Allow(r.Context(), purpose+":"+ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return true
	}
	if !allowed {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}

	return true
}

// resetLimit clears the per-IP counter for purpose, so failed attempts
// before a successful one do not count against the client.
func (h *Handler) resetLimit(r *http.Request, purpose string) {
	if h.rateLimiter == nil {
		return
	}
	if err := h.rateLimiter.Reset(r.Context(), purpose+":"+getClientIP(r)); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to reset IP rate limit", "error", err.Error())
	}
}

func toUserResponse(u *user.User, token string) UserResponse {
	return UserResponse{
		User: UserBody{
			Email:    u.Email,
			Username: u.Username,
			Bio:      u.Bio,
			Image:    u.Image,
			Token:    token,
		},
	}
}

func internalError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// getClientIP returns the host part of RemoteAddr. Forwarding headers only
// reach it through chi's RealIP, which the router installs when
// TRUST_PROXY_HEADERS is set.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
