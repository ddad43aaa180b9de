package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/logger"
	"github.com/seoforge/seoforge-api/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface using a
// PostgreSQL database as the storage backend. The rollup row is folded
// forward with an upsert; the cost ledger stays authoritative.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the
// StatsStore interface. If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// ApplyCost implements store.StatsStore.ApplyCost.
func (s *PostgresStatsStore) ApplyCost(ctx context.Context, userID uuid.UUID, cost float64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO user_dashboard_stats (user_id, tasks_total, cost_total, updated_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET tasks_total = user_dashboard_stats.tasks_total + 1,
		              cost_total = user_dashboard_stats.cost_total + EXCLUDED.cost_total,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, userID, cost, time.Now().UTC())
	if err != nil {
		log.Error("failed to apply cost to dashboard stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	return nil
}

// GetByUserID implements store.StatsStore.GetByUserID.
// Returns store.ErrStatsNotFound if the user has no rollup yet.
func (s *PostgresStatsStore) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.DashboardStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, tasks_total, cost_total, updated_at
		FROM user_dashboard_stats
		WHERE user_id = $1
	`

	var stats domain.DashboardStats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.TasksTotal,
		&stats.CostTotal,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrStatsNotFound
		}
		log.Error("failed to get dashboard stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return &stats, nil
}
