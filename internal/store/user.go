package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
)

// UserStore defines the interface for user account persistence.
// Implementations hash the plaintext password before storage.
// Version: 1.0
type UserStore interface {
	// Create saves a new user, hashing the plaintext password.
	// Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID retrieves a user by id.
	// Returns ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
