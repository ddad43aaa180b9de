package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/store"
)

// CostService is the read side of the cost ledger.
type CostService interface {
	// Total returns the user's all-time spend.
	Total(ctx context.Context, userID uuid.UUID) (float64, error)

	// ByType returns the user's all-time spend per task type. Types with
	// no spend are present with a zero value, so the dashboard renders a
	// stable set of rows.
	ByType(ctx context.Context, userID uuid.UUID) (map[domain.TaskType]float64, error)

	// InRange returns the user's spend in the half-open window
	// [start, end).
	InRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (float64, error)

	// Today returns the user's spend since UTC midnight.
	Today(ctx context.Context, userID uuid.UUID) (float64, error)

	// Stats returns the user's dashboard rollup. A user with no recorded
	// activity gets a zero-valued rollup, not an error.
	Stats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
}

// CostServiceImpl implements the CostService interface.
type CostServiceImpl struct {
	costStore  store.CostStore
	statsStore store.StatsStore
	logger     *slog.Logger
	timeFunc   func() time.Time // Injectable for testing
}

// Ensure CostServiceImpl implements CostService interface
var _ CostService = (*CostServiceImpl)(nil)

// NewCostService creates a new CostService.
func NewCostService(
	costStore store.CostStore,
	statsStore store.StatsStore,
	logger *slog.Logger,
) *CostServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}

	return &CostServiceImpl{
		costStore:  costStore,
		statsStore: statsStore,
		logger:     logger.With("component", "cost_service"),
		timeFunc:   time.Now,
	}
}

// Total implements CostService.Total.
func (s *CostServiceImpl) Total(ctx context.Context, userID uuid.UUID) (float64, error) {
	total, err := s.costStore.TotalForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read total spend: %w", err)
	}
	return total, nil
}

// ByType implements CostService.ByType.
func (s *CostServiceImpl) ByType(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.TaskType]float64, error) {
	sums, err := s.costStore.SumByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read spend by type: %w", err)
	}

	totals := make(map[domain.TaskType]float64, len(domain.AllTaskTypes))
	for _, taskType := range domain.AllTaskTypes {
		totals[taskType] = sums[taskType]
	}
	return totals, nil
}

// InRange implements CostService.InRange.
func (s *CostServiceImpl) InRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (float64, error) {
	total, err := s.costStore.SumInRange(ctx, userID, start.UTC(), end.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to read spend in range: %w", err)
	}
	return total, nil
}

// Today implements CostService.Today.
func (s *CostServiceImpl) Today(ctx context.Context, userID uuid.UUID) (float64, error) {
	now := s.timeFunc().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	total, err := s.costStore.SumInRange(ctx, userID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to read today's spend: %w", err)
	}
	return total, nil
}

// Stats implements CostService.Stats.
func (s *CostServiceImpl) Stats(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.DashboardStats, error) {
	stats, err := s.statsStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrStatsNotFound) {
			return &domain.DashboardStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to read dashboard stats: %w", err)
	}
	return stats, nil
}
