package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a person who signed in through the identity provider
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	ProviderID    *string   `json:"provider_id,omitempty"`
	Name          *string   `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayName returns the name when known, otherwise the email
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// Preferences are the per-user settings kept server side
type Preferences struct {
	UserID       uuid.UUID `json:"user_id"`
	KeepLoggedIn bool      `json:"keep_logged_in"`
	UpdatedAt    time.Time `json:"updated_at"`
}
