package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Bio          *string   `json:"bio"`
	Image        *string   `json:"image"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateFields is an explicit set of optional fields for a partial update.
// A nil field is left untouched; a non-nil field overwrites the stored value,
// including an empty string.
type UpdateFields struct {
	Email        *string
	Username     *string
	PasswordHash *string
	Bio          *string
	Image        *string
}

// IsEmpty reports whether no field is set.
func (f UpdateFields) IsEmpty() bool {
	return f.Email == nil && f.Username == nil && f.PasswordHash == nil && f.Bio == nil && f.Image == nil
}

// Apply merges the set fields into u.
func (f UpdateFields) Apply(u *User) {
	if f.Email != nil {
		u.Email = *f.Email
	}
	if f.Username != nil {
		u.Username = *f.Username
	}
	if f.PasswordHash != nil {
		u.PasswordHash = *f.PasswordHash
	}
	if f.Bio != nil {
		bio := *f.Bio
		u.Bio = &bio
	}
	if f.Image != nil {
		image := *f.Image
		u.Image = &image
	}
}
