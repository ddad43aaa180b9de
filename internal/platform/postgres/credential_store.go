package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/logger"
	"github.com/seoforge/seoforge-api/internal/store"
)

// PostgresCredentialStore implements the store.CredentialStore interface
// using a PostgreSQL database as the storage backend. One row per user,
// replaced on every update.
type PostgresCredentialStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCredentialStore creates a new PostgreSQL implementation of
// the CredentialStore interface. If logger is nil, a default logger will
// be used.
func NewPostgresCredentialStore(db store.DBTX, logger *slog.Logger) *PostgresCredentialStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCredentialStore{
		db:     db,
		logger: logger.With(slog.String("component", "credential_store")),
	}
}

// Ensure PostgresCredentialStore implements store.CredentialStore interface
var _ store.CredentialStore = (*PostgresCredentialStore)(nil)

// Upsert implements store.CredentialStore.Upsert.
func (s *PostgresCredentialStore) Upsert(ctx context.Context, creds *domain.Credentials) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := creds.Validate(); err != nil {
		log.Warn("credentials validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", creds.UserID.String()))
		return err
	}

	query := `
		INSERT INTO dataforseo_credentials (user_id, login, password, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET login = EXCLUDED.login,
		              password = EXCLUDED.password,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, creds.UserID, creds.Login, creds.Password, creds.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		// The password never reaches the log line; only the driver error does.
		log.Error("failed to upsert credentials",
			slog.String("error", err.Error()),
			slog.String("user_id", creds.UserID.String()))
		return err
	}

	log.Info("provider credentials stored",
		slog.String("user_id", creds.UserID.String()),
		slog.String("login", creds.Login))
	return nil
}

// GetByUserID implements store.CredentialStore.GetByUserID.
// Returns store.ErrCredentialsNotFound if the user has none configured.
func (s *PostgresCredentialStore) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Credentials, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, login, password, updated_at
		FROM dataforseo_credentials
		WHERE user_id = $1
	`

	var creds domain.Credentials
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&creds.UserID,
		&creds.Login,
		&creds.Password,
		&creds.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no provider credentials configured",
				slog.String("user_id", userID.String()))
			return nil, store.ErrCredentialsNotFound
		}
		log.Error("failed to get credentials",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return &creds, nil
}
