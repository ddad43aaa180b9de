package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/store"
)

// timeNow stamps new task records. Injectable for tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// TaskService provides the task lifecycle operations: submitting work to
// the provider, tracking the resulting records, and reconciling their
// readiness.
type TaskService interface {
	// Submit posts params to the task type's queued endpoint and persists
	// one pending record per provider task. The provider envelope is
	// returned unchanged so the caller sees exactly what the provider said.
	Submit(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
		params json.RawMessage,
	) (*dataforseo.Response, error)

	// SubmitLive posts params to the task type's synchronous endpoint and
	// persists the returned tasks as ready records with their results.
	SubmitLive(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
		params json.RawMessage,
	) (*dataforseo.Response, error)

	// ListTasks returns the user's task records for a type, newest first.
	ListTasks(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
	) ([]*domain.Task, error)

	// GetTask returns one task record scoped to the owning user. A pending
	// queued task is reconciled against the provider on the way out, so a
	// read observes results as soon as the provider has them.
	GetTask(
		ctx context.Context,
		userID uuid.UUID,
		taskType domain.TaskType,
		id string,
	) (*domain.Task, error)

	// Reconcile asks the provider which of the user's queued tasks have
	// completed, marks those records ready with the listing's partial
	// fields, then fetches their results. A failed result fetch leaves
	// the record ready without a result until a later run. Ids the
	// platform never tracked are skipped. Safe to run repeatedly.
	Reconcile(ctx context.Context, userID uuid.UUID, taskType domain.TaskType) error
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	taskStore       store.TaskStore
	credentialStore store.CredentialStore
	provider        Provider
	costs           CostRecorder
	logger          *slog.Logger
}

// Ensure TaskServiceImpl implements TaskService interface
var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskStore store.TaskStore,
	credentialStore store.CredentialStore,
	provider Provider,
	costs CostRecorder,
	logger *slog.Logger,
) *TaskServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskServiceImpl{
		taskStore:       taskStore,
		credentialStore: credentialStore,
		provider:        provider,
		costs:           costs,
		logger:          logger.With("component", "task_service"),
	}
}

// Submit implements TaskService.Submit.
// If the provider call fails, nothing is persisted.
func (s *TaskServiceImpl) Submit(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error) {
	if !dataforseo.SupportsQueue(taskType) {
		return nil, fmt.Errorf("%w: %s has no queued endpoint",
			dataforseo.ErrUnsupportedOperation, taskType)
	}

	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.TaskPost(ctx, creds, taskType, params)
	if err != nil {
		return nil, fmt.Errorf("task submission failed: %w", err)
	}

	for i := range resp.Tasks {
		envelope := &resp.Tasks[i]
		if !envelopeAccepted(envelope) {
			s.logger.Warn("provider rejected task",
				"task_id", envelope.ID,
				"task_type", taskType,
				"status_code", envelope.StatusCode,
				"status_message", envelope.StatusMessage)
			continue
		}

		task := taskFromEnvelope(envelope, userID, taskType, params, false)
		if err := s.taskStore.Create(ctx, task); err != nil {
			if errors.Is(err, store.ErrTaskExists) {
				s.logger.Warn("provider returned an already tracked task id",
					"task_id", envelope.ID,
					"task_type", taskType)
				continue
			}
			return resp, fmt.Errorf("failed to persist task %s: %w", envelope.ID, err)
		}

		s.recordCost(ctx, userID, taskType, envelope, dataforseo.TaskPostPath(taskType))
	}

	return resp, nil
}

// SubmitLive implements TaskService.SubmitLive.
func (s *TaskServiceImpl) SubmitLive(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error) {
	if !dataforseo.SupportsLive(taskType) {
		return nil, fmt.Errorf("%w: %s has no live endpoint",
			dataforseo.ErrUnsupportedOperation, taskType)
	}

	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.Live(ctx, creds, taskType, params)
	if err != nil {
		return nil, fmt.Errorf("live submission failed: %w", err)
	}

	for i := range resp.Tasks {
		envelope := &resp.Tasks[i]
		if !envelopeAccepted(envelope) {
			s.logger.Warn("provider rejected live task",
				"task_id", envelope.ID,
				"task_type", taskType,
				"status_code", envelope.StatusCode,
				"status_message", envelope.StatusMessage)
			continue
		}

		task := taskFromEnvelope(envelope, userID, taskType, params, true)
		if err := s.taskStore.Create(ctx, task); err != nil {
			if errors.Is(err, store.ErrTaskExists) {
				continue
			}
			return resp, fmt.Errorf("failed to persist live task %s: %w", envelope.ID, err)
		}

		s.recordCost(ctx, userID, taskType, envelope, dataforseo.LivePath(taskType))
	}

	return resp, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *TaskServiceImpl) ListTasks(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
) ([]*domain.Task, error) {
	return s.taskStore.ListByUser(ctx, taskType, userID)
}

// GetTask implements TaskService.GetTask.
// A provider failure during reconciliation degrades to returning the
// stored record unchanged; the dashboard keeps working while the provider
// is down.
func (s *TaskServiceImpl) GetTask(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	id string,
) (*domain.Task, error) {
	task, err := s.taskStore.GetForUser(ctx, taskType, id, userID)
	if err != nil {
		return nil, err
	}

	if task.IsReady || !dataforseo.SupportsQueue(taskType) {
		return task, nil
	}

	creds, err := s.credentialStore.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Debug("skipping read-side reconciliation",
			"task_id", id,
			"error", err)
		return task, nil
	}

	resp, err := s.provider.TaskGet(ctx, creds, taskType, id)
	if err != nil {
		s.logger.Warn("read-side reconciliation failed",
			"task_id", id,
			"task_type", taskType,
			"error", err)
		return task, nil
	}

	envelope := findEnvelope(resp, id)
	if envelope == nil || envelope.InQueue() {
		return task, nil
	}

	if err := s.saveEnvelopeResult(ctx, taskType, envelope); err != nil {
		s.logger.Warn("failed to save reconciled result",
			"task_id", id,
			"error", err)
		return task, nil
	}
	s.recordCost(ctx, userID, taskType, envelope, dataforseo.TaskGetPath(taskType, id))

	return s.taskStore.GetForUser(ctx, taskType, id, userID)
}

// Reconcile implements TaskService.Reconcile.
func (s *TaskServiceImpl) Reconcile(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
) error {
	if !dataforseo.SupportsQueue(taskType) {
		return nil
	}

	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return err
	}

	_, ready, err := s.provider.TasksReady(ctx, creds, taskType)
	if err != nil {
		return fmt.Errorf("readiness listing failed: %w", err)
	}

	for _, item := range ready {
		// Only act on ids this platform tracks. The provider account may
		// carry tasks submitted elsewhere.
		task, err := s.taskStore.GetForUser(ctx, taskType, item.ID, userID)
		if err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				s.logger.Debug("readiness listing mentioned untracked task",
					"task_id", item.ID,
					"task_type", taskType)
				continue
			}
			return err
		}

		if task.IsReady && task.HasResult() {
			continue
		}

		// The listing alone proves completion: flag the record ready with
		// the listing's partial fields before attempting the result fetch,
		// so a provider outage between the two steps still leaves the
		// readiness visible. The stored result is untouched here.
		if _, err := s.taskStore.MarkReady(ctx, taskType, item.ID, readyUpdateFromItem(item)); err != nil {
			return err
		}

		resp, err := s.provider.TaskGet(ctx, creds, taskType, item.ID)
		if err != nil {
			s.logger.Warn("failed to fetch ready task",
				"task_id", item.ID,
				"task_type", taskType,
				"error", err)
			continue
		}

		envelope := findEnvelope(resp, item.ID)
		if envelope == nil || envelope.InQueue() {
			continue
		}

		if err := s.saveEnvelopeResult(ctx, taskType, envelope); err != nil {
			if errors.Is(err, store.ErrTaskNotFound) {
				continue
			}
			return err
		}
		s.recordCost(ctx, userID, taskType, envelope, dataforseo.TaskGetPath(taskType, item.ID))
	}

	return nil
}

// credentials resolves the user's provider credentials, mapping their
// absence to ErrNoCredentials.
func (s *TaskServiceImpl) credentials(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Credentials, error) {
	creds, err := s.credentialStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrCredentialsNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}
	return creds, nil
}

// readyUpdateFromItem builds the partial status update a tasks_ready entry
// carries. Modules whose listings omit status fields get the generic
// success code; the entry's absence of a cost leaves the stored cost alone.
func readyUpdateFromItem(item dataforseo.ReadyItem) store.ReadyUpdate {
	update := store.ReadyUpdate{
		StatusCode:    item.StatusCode,
		StatusMessage: item.StatusMessage,
		Cost:          item.Cost,
		ResultCount:   item.ResultCount,
	}
	if update.StatusCode == 0 {
		update.StatusCode = dataforseo.StatusOK
		update.StatusMessage = "Ok."
	}
	return update
}

// saveEnvelopeResult stores a fetched result body and marks the record ready.
func (s *TaskServiceImpl) saveEnvelopeResult(
	ctx context.Context,
	taskType domain.TaskType,
	envelope *dataforseo.TaskEnvelope,
) error {
	return s.taskStore.SaveResult(ctx, taskType, envelope.ID, envelope.Result, store.ReadyUpdate{
		StatusCode:    envelope.StatusCode,
		StatusMessage: envelope.StatusMessage,
		Time:          envelope.Time,
		Cost:          envelope.Cost,
		ResultCount:   envelope.ResultCount,
	})
}

// recordCost queues a ledger entry for a charged provider call. Recording
// failures are logged, never surfaced: the queue retries delivery and the
// submission path must not fail over accounting.
func (s *TaskServiceImpl) recordCost(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	envelope *dataforseo.TaskEnvelope,
	endpoint string,
) {
	// Zero-cost tasks get a ledger row too: the ledger doubles as the
	// per-user task count feeding the dashboard rollup.
	cost := 0.0
	if envelope.Cost != nil {
		cost = *envelope.Cost
	}

	entry, err := domain.NewCostEntry(userID, envelope.ID, taskType, cost, endpoint, envelope.StatusCode)
	if err != nil {
		s.logger.Error("failed to build cost entry",
			"task_id", envelope.ID,
			"error", err)
		return
	}

	if err := s.costs.Record(ctx, entry); err != nil {
		s.logger.Error("failed to queue cost entry",
			"task_id", envelope.ID,
			"error", err)
	}
}

// envelopeAccepted reports whether a per-task envelope describes a task
// the provider actually accepted.
func envelopeAccepted(envelope *dataforseo.TaskEnvelope) bool {
	return envelope.StatusCode >= 20000 && envelope.StatusCode <= 29999
}

// findEnvelope locates the envelope for a task id in a provider response.
func findEnvelope(resp *dataforseo.Response, id string) *dataforseo.TaskEnvelope {
	for i := range resp.Tasks {
		if resp.Tasks[i].ID == id {
			return &resp.Tasks[i]
		}
	}
	return nil
}

// taskFromEnvelope converts a provider envelope into a task record owned
// by the submitting user. The submitted params are stored verbatim; the
// provider's echo of them lands in Data.
func taskFromEnvelope(
	envelope *dataforseo.TaskEnvelope,
	userID uuid.UUID,
	taskType domain.TaskType,
	params json.RawMessage,
	ready bool,
) *domain.Task {
	task := &domain.Task{
		ID:            envelope.ID,
		UserID:        userID,
		Type:          taskType,
		StatusCode:    envelope.StatusCode,
		StatusMessage: envelope.StatusMessage,
		Time:          envelope.Time,
		Cost:          envelope.Cost,
		ResultCount:   envelope.ResultCount,
		Path:          envelope.Path,
		Data:          envelope.Data,
		Params:        params,
		IsReady:       ready,
		CreatedAt:     timeNow(),
	}
	if ready {
		task.Result = envelope.Result
	}
	return task
}
