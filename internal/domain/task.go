package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies which provider endpoint family produced a task.
// Each type is persisted in its own table.
type TaskType string

// Supported task types.
const (
	TaskTypeSERP                   TaskType = "serp"
	TaskTypeOnPage                 TaskType = "on_page"
	TaskTypeKeywordsForKeywords    TaskType = "keywords_for_keywords"
	TaskTypeKeywordsForSite        TaskType = "keywords_for_site"
	TaskTypeDomainCompetitors      TaskType = "domain_competitors"
	TaskTypeDomainRankOverview     TaskType = "domain_rank_overview"
	TaskTypeContentAnalysisSummary TaskType = "content_analysis_summary"
)

// AllTaskTypes lists every supported task type, in a stable order.
var AllTaskTypes = []TaskType{
	TaskTypeSERP,
	TaskTypeOnPage,
	TaskTypeKeywordsForKeywords,
	TaskTypeKeywordsForSite,
	TaskTypeDomainCompetitors,
	TaskTypeDomainRankOverview,
	TaskTypeContentAnalysisSummary,
}

// Common validation errors for Task
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID = errors.New("task user ID cannot be empty")
	ErrInvalidTaskType = errors.New("invalid task type")
	ErrEmptyTaskParams = errors.New("task params cannot be empty")
)

// Task is one unit of work submitted to the external SEO data provider.
// The ID is the provider-assigned opaque identifier and is the primary key;
// a task row is created exactly once at submission and mutated only by the
// readiness poller and the result reconciler.
type Task struct {
	ID            string          `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Type          TaskType        `json:"type"`
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Time          string          `json:"time"`
	Cost          *float64        `json:"cost"`
	ResultCount   int             `json:"result_count"`
	Path          []string        `json:"path"`
	Data          json.RawMessage `json:"data,omitempty"`
	Params        json.RawMessage `json:"params"`
	Result        json.RawMessage `json:"result,omitempty"`
	IsReady       bool            `json:"is_ready"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewTask creates a Task record for a provider-returned task id, tagged with
// the owning user and the locally-constructed request parameters. The record
// starts not-ready with zero results.
// Returns an error if validation fails.
func NewTask(id string, userID uuid.UUID, taskType TaskType, params json.RawMessage) (*Task, error) {
	task := &Task{
		ID:        id,
		UserID:    userID,
		Type:      taskType,
		Params:    params,
		IsReady:   false,
		CreatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if !IsValidTaskType(t.Type) {
		return ErrInvalidTaskType
	}

	if len(t.Params) == 0 {
		return ErrEmptyTaskParams
	}

	return nil
}

// HasResult reports whether the task carries a non-empty result body.
// A ready task may legitimately have zero results; the converse
// (results on a not-ready task) is a bug.
func (t *Task) HasResult() bool {
	return len(t.Result) > 0 && string(t.Result) != "null"
}

// CostValue returns the provider-reported cost, or 0 if it is not yet known.
func (t *Task) CostValue() float64 {
	if t.Cost == nil {
		return 0
	}
	return *t.Cost
}

// IsValidTaskType checks if the given type is a supported TaskType.
func IsValidTaskType(taskType TaskType) bool {
	switch taskType {
	case TaskTypeSERP, TaskTypeOnPage, TaskTypeKeywordsForKeywords,
		TaskTypeKeywordsForSite, TaskTypeDomainCompetitors,
		TaskTypeDomainRankOverview, TaskTypeContentAnalysisSummary:
		return true
	default:
		return false
	}
}
