package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
)

// CostStore defines the interface for the append-only cost ledger.
// Entries are facts: no update or delete operations exist.
// Version: 1.0
type CostStore interface {
	// Create appends one ledger row. Returns domain validation errors if
	// the entry is invalid.
	Create(ctx context.Context, entry *domain.CostEntry) error

	// SumInRange returns the sum of ledger costs for the user with
	// created_at in the half-open range [start, end).
	SumInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (float64, error)

	// SumByType returns the per-task-type cost breakdown for the user over
	// the whole ledger.
	SumByType(ctx context.Context, userID uuid.UUID) (map[domain.TaskType]float64, error)

	// TotalForUser returns the user's all-time ledger sum.
	TotalForUser(ctx context.Context, userID uuid.UUID) (float64, error)
}
