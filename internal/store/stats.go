package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
)

// StatsStore defines the interface for the user_dashboard_stats rollup
// maintained by the cost recorder. The rollup is derived data; the cost
// ledger stays authoritative.
// Version: 1.0
type StatsStore interface {
	// ApplyCost folds one completed task into the user's rollup,
	// creating the row if it does not exist yet.
	ApplyCost(ctx context.Context, userID uuid.UUID, cost float64) error

	// GetByUserID retrieves the user's rollup row.
	// Returns ErrStatsNotFound if the user has no rollup yet.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
}
