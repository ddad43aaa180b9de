package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/logger"
	"github.com/seoforge/seoforge-api/internal/store"
)

// PostgresCostStore implements the store.CostStore interface using a
// PostgreSQL database as the storage backend. The task_costs table is
// append-only: this type exposes no update or delete path.
type PostgresCostStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCostStore creates a new PostgreSQL implementation of the
// CostStore interface. If logger is nil, a default logger will be used.
func NewPostgresCostStore(db store.DBTX, logger *slog.Logger) *PostgresCostStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCostStore{
		db:     db,
		logger: logger.With(slog.String("component", "cost_store")),
	}
}

// Ensure PostgresCostStore implements store.CostStore interface
var _ store.CostStore = (*PostgresCostStore)(nil)

// Create implements store.CostStore.Create.
func (s *PostgresCostStore) Create(ctx context.Context, entry *domain.CostEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("cost entry validation failed",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID))
		return err
	}

	query := `
		INSERT INTO task_costs (id, user_id, task_id, task_type, cost, api_endpoint, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.TaskID,
		entry.TaskType,
		entry.Cost,
		entry.APIEndpoint,
		entry.StatusCode,
		entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Redelivered queue messages carry the same entry id.
			return store.ErrDuplicate
		}
		log.Error("failed to append cost entry",
			slog.String("error", err.Error()),
			slog.String("task_id", entry.TaskID),
			slog.String("user_id", entry.UserID.String()))
		return err
	}

	log.Debug("cost entry appended",
		slog.String("task_id", entry.TaskID),
		slog.Float64("cost", entry.Cost))
	return nil
}

// SumInRange implements store.CostStore.SumInRange.
func (s *PostgresCostStore) SumInRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(SUM(cost), 0)
		FROM task_costs
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
	`

	var total float64
	err := s.db.QueryRowContext(ctx, query, userID, start, end).Scan(&total)
	if err != nil {
		log.Error("failed to sum costs in range",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return total, nil
}

// SumByType implements store.CostStore.SumByType.
func (s *PostgresCostStore) SumByType(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.TaskType]float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT task_type, COALESCE(SUM(cost), 0)
		FROM task_costs
		WHERE user_id = $1
		GROUP BY task_type
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to sum costs by type",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer closeRows(rows, log)

	totals := make(map[domain.TaskType]float64)
	for rows.Next() {
		var taskType domain.TaskType
		var sum float64
		if err := rows.Scan(&taskType, &sum); err != nil {
			return nil, err
		}
		totals[taskType] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

// TotalForUser implements store.CostStore.TotalForUser.
func (s *PostgresCostStore) TotalForUser(ctx context.Context, userID uuid.UUID) (float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(SUM(cost), 0)
		FROM task_costs
		WHERE user_id = $1
	`

	var total float64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&total)
	if err != nil {
		log.Error("failed to sum user costs",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return total, nil
}
