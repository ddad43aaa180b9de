package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
)

// CredentialStore defines the interface for per-user DataForSEO
// credential persistence. One row per user, create-or-replace.
// Version: 1.0
type CredentialStore interface {
	// Upsert creates or replaces the user's credential pair.
	Upsert(ctx context.Context, creds *domain.Credentials) error

	// GetByUserID retrieves the user's credential pair.
	// Returns ErrCredentialsNotFound if the user has none configured.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Credentials, error)
}
