package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for CostEntry
var (
	ErrEmptyCostEntryID    = errors.New("cost entry ID cannot be empty")
	ErrEmptyCostUserID     = errors.New("cost entry user ID cannot be empty")
	ErrEmptyCostTaskID     = errors.New("cost entry task ID cannot be empty")
	ErrNegativeCost        = errors.New("cost cannot be negative")
	ErrEmptyCostEndpoint   = errors.New("cost entry API endpoint cannot be empty")
	ErrInvalidCostTaskType = errors.New("cost entry has invalid task type")
)

// CostEntry is one immutable ledger row recording the provider-reported
// cost of a completed task. Entries are append-only: they are never
// updated or deleted, and aggregates are computed purely by folding
// over them.
type CostEntry struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	TaskID      string    `json:"task_id"`
	TaskType    TaskType  `json:"task_type"`
	Cost        float64   `json:"cost"`
	APIEndpoint string    `json:"api_endpoint"`
	StatusCode  int       `json:"status_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCostEntry creates a ledger row for one task returned by one provider
// call. Returns an error if validation fails.
func NewCostEntry(
	userID uuid.UUID,
	taskID string,
	taskType TaskType,
	cost float64,
	apiEndpoint string,
	statusCode int,
) (*CostEntry, error) {
	entry := &CostEntry{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      taskID,
		TaskType:    taskType,
		Cost:        cost,
		APIEndpoint: apiEndpoint,
		StatusCode:  statusCode,
		CreatedAt:   time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the CostEntry has valid data.
func (e *CostEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyCostEntryID
	}

	if e.UserID == uuid.Nil {
		return ErrEmptyCostUserID
	}

	if e.TaskID == "" {
		return ErrEmptyCostTaskID
	}

	if e.Cost < 0 {
		return ErrNegativeCost
	}

	if e.APIEndpoint == "" {
		return ErrEmptyCostEndpoint
	}

	if !IsValidTaskType(e.TaskType) {
		return ErrInvalidCostTaskType
	}

	return nil
}
