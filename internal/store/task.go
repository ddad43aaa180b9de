package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/seoforge/seoforge-api/internal/domain"
)

// ReadyUpdate carries the partial status fields the provider includes in a
// tasks_ready listing. The ready-list response intentionally omits result
// bodies, so there is no result field here; results arrive only through
// TaskStore.SaveResult. An empty Time or a nil Cost leaves the stored
// value in place.
type ReadyUpdate struct {
	StatusCode    int
	StatusMessage string
	Time          string
	Cost          *float64
	ResultCount   int
}

// TaskStore defines the interface for task record persistence. Each task
// type is persisted in its own table; implementations route on the type.
// Version: 1.0
type TaskStore interface {
	// Create persists a new task record. A task record is created exactly
	// once, at submission time. Returns ErrTaskExists if the provider id
	// has already been persisted, or domain validation errors.
	Create(ctx context.Context, task *domain.Task) error

	// GetForUser retrieves one task by provider id, scoped to the owning
	// user. Returns ErrTaskNotFound if the row does not exist or belongs
	// to a different user.
	GetForUser(ctx context.Context, taskType domain.TaskType, id string, userID uuid.UUID) (*domain.Task, error)

	// ListByUser retrieves every task of the given type owned by the user,
	// newest first. The grouping engine aggregates over the full list;
	// there is deliberately no cursor at the storage layer.
	ListByUser(ctx context.Context, taskType domain.TaskType, userID uuid.UUID) ([]*domain.Task, error)

	// ListInWindow retrieves the user's tasks of the given type created in
	// the half-open window [start, end). Used to re-derive a group's
	// members from its structured key.
	ListInWindow(
		ctx context.Context,
		taskType domain.TaskType,
		userID uuid.UUID,
		start, end time.Time,
	) ([]*domain.Task, error)

	// MarkReady flags the task with the given provider id as ready and
	// records the partial status fields from the ready listing, leaving
	// any stored result untouched. A missing row is a silent no-op (it
	// reflects a task created outside the tracked flow): the returned
	// bool reports whether a row was updated, and the error is nil in
	// the missing-row case.
	MarkReady(ctx context.Context, taskType domain.TaskType, id string, update ReadyUpdate) (bool, error)

	// SaveResult stores a fetched result body, sets is_ready=true, and
	// records the accompanying status fields. Calling it twice with the
	// same completed payload yields the same stored state.
	// Returns ErrTaskNotFound if the row does not exist.
	SaveResult(
		ctx context.Context,
		taskType domain.TaskType,
		id string,
		result json.RawMessage,
		update ReadyUpdate,
	) error

	// ListUsersWithPending returns the distinct owners of not-ready tasks
	// of the given type. The readiness poller iterates these users.
	ListUsersWithPending(ctx context.Context, taskType domain.TaskType) ([]uuid.UUID, error)

	// DeleteByIDs deletes the given task rows, scoped to the owning user,
	// and reports how many rows were removed. This is the only path that
	// ever deletes task records.
	DeleteByIDs(ctx context.Context, taskType domain.TaskType, userID uuid.UUID, ids []string) (int64, error)
}
