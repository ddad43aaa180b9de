package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Credentials
var (
	ErrEmptyCredentialsUserID   = errors.New("credentials user ID cannot be empty")
	ErrEmptyCredentialsLogin    = errors.New("credentials login cannot be empty")
	ErrEmptyCredentialsPassword = errors.New("credentials password cannot be empty")
)

// Credentials holds one user's DataForSEO login/password pair, used to
// build HTTP Basic auth for provider calls. One row per user, replaced
// on every update (never multi-valued, never versioned).
//
// The password is stored in plaintext, which is a known insecure
// state-of-affairs; the redact package keeps it out of log output, which
// is the only mitigation in scope.
type Credentials struct {
	UserID    uuid.UUID `json:"user_id"`
	Login     string    `json:"login"`
	Password  string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCredentials creates a Credentials pair for the given user.
// Returns an error if validation fails.
func NewCredentials(userID uuid.UUID, login, password string) (*Credentials, error) {
	creds := &Credentials{
		UserID:    userID,
		Login:     login,
		Password:  password,
		UpdatedAt: time.Now().UTC(),
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return creds, nil
}

// Validate checks if the Credentials have valid data.
func (c *Credentials) Validate() error {
	if c.UserID == uuid.Nil {
		return ErrEmptyCredentialsUserID
	}

	if c.Login == "" {
		return ErrEmptyCredentialsLogin
	}

	if c.Password == "" {
		return ErrEmptyCredentialsPassword
	}

	return nil
}
