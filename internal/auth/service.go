package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/redmonkez12/conduit-api/internal/logging"
	"github.com/redmonkez12/conduit-api/internal/user"
)

const maxEmailLength = 254

// RegisterInput holds the fields of a registration request.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// UpdateInput holds the optional fields of a profile update. A nil field is
// not changed. Bio and Image may be set to "" to clear them; Email, Username
// and Password may not be empty.
type UpdateInput struct {
	Email    *string
	Username *string
	Password *string
	Bio      *string
	Image    *string
}

// Service handles account business logic
type Service struct {
	users          UserStore
	hasher         *PasswordHasher
	tokens         TokenService
	logger         *logging.Logger
	accessTokenTTL time.Duration
	now            func() time.Time

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewService(
	users UserStore,
	hasher *PasswordHasher,
	tokens TokenService,
	logger *logging.Logger,
	accessTokenTTL time.Duration,
) *Service {
	return &Service{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		logger:         logger,
		accessTokenTTL: accessTokenTTL,
		now:            time.Now,
	}
}

// Register creates a new account and returns it with a fresh access token.
// A taken email yields user.ErrDuplicateEmail and creates nothing.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, string, error) {
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, "", ErrUsernameRequired
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	newUser, err := s.users.Create(ctx, email, username, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(newUser)
	if err != nil {
		return nil, "", err
	}

	return newUser, token, nil
}

// Login authenticates a user by email and password and returns an access token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Same hashing cost as a wrong password, so response time does
			// not reveal whether the email is registered.
			s.hasher.Verify(password, s.dummyPasswordHash())
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existingUser.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(existingUser)
	if err != nil {
		return nil, "", err
	}

	return existingUser, token, nil
}

// UpdateUser applies a partial update to current. Changing the email to one
// owned by another account yields user.ErrDuplicateEmail.
func (s *Service) UpdateUser(ctx context.Context, current *user.User, in UpdateInput) (*user.User, error) {
	var fields user.UpdateFields

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != current.Email {
			existing, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != current.ID:
				return nil, user.ErrDuplicateEmail
			case err != nil && !errors.Is(err, user.ErrNotFound):
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		fields.Email = &email
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, ErrUsernameRequired
		}
		fields.Username = &username
	}

	if in.Password != nil {
		passwordHash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		fields.PasswordHash = &passwordHash
	}

	fields.Bio = in.Bio
	fields.Image = in.Image

	if fields.IsEmpty() {
		s.logger.Debug("update with no fields, nothing to do", "user_id", current.ID)
		return current, nil
	}

	updated, err := s.users.Update(ctx, current.ID, fields)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) || errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updated, nil
}

// dummyPasswordHash returns a hash made with the service's own parameters,
// created on first use.
func (s *Service) dummyPasswordHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := s.hasher.Hash("conduit-dummy-password")
		if err != nil {
			s.logger.Error("failed to create dummy password hash", "error", err.Error())
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) issueToken(u *user.User) (string, error) {
	token, err := s.tokens.Issue(u.ID.String(), s.now(), s.accessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return token, nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}
