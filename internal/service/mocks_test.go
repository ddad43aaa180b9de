package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/store"
)

// mockTaskStore is an in-memory store.TaskStore keyed by task id. It keeps
// insertion order so list results are deterministic.
type mockTaskStore struct {
	mu    sync.Mutex
	tasks []*domain.Task

	createErr error
	listErr   error
}

var _ store.TaskStore = (*mockTaskStore)(nil)

func (m *mockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.tasks {
		if existing.ID == task.ID && existing.Type == task.Type {
			return store.ErrTaskExists
		}
	}
	copied := *task
	m.tasks = append(m.tasks, &copied)
	return nil
}

func (m *mockTaskStore) GetForUser(
	ctx context.Context,
	taskType domain.TaskType,
	id string,
	userID uuid.UUID,
) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.Type == taskType && task.ID == id && task.UserID == userID {
			copied := *task
			return &copied, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskStore) ListByUser(
	ctx context.Context,
	taskType domain.TaskType,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Task
	for _, task := range m.tasks {
		if task.Type == taskType && task.UserID == userID {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockTaskStore) ListInWindow(
	ctx context.Context,
	taskType domain.TaskType,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, task := range m.tasks {
		if task.Type != taskType || task.UserID != userID {
			continue
		}
		if task.CreatedAt.Before(start) || !task.CreatedAt.Before(end) {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockTaskStore) MarkReady(
	ctx context.Context,
	taskType domain.TaskType,
	id string,
	update store.ReadyUpdate,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.Type == taskType && task.ID == id {
			applyUpdate(task, update)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTaskStore) SaveResult(
	ctx context.Context,
	taskType domain.TaskType,
	id string,
	result json.RawMessage,
	update store.ReadyUpdate,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.Type == taskType && task.ID == id {
			task.Result = result
			applyUpdate(task, update)
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (m *mockTaskStore) ListUsersWithPending(
	ctx context.Context,
	taskType domain.TaskType,
) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[uuid.UUID]bool)
	var users []uuid.UUID
	for _, task := range m.tasks {
		if task.Type == taskType && !task.IsReady && !seen[task.UserID] {
			seen[task.UserID] = true
			users = append(users, task.UserID)
		}
	}
	return users, nil
}

func (m *mockTaskStore) DeleteByIDs(
	ctx context.Context,
	taskType domain.TaskType,
	userID uuid.UUID,
	ids []string,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var kept []*domain.Task
	var deleted int64
	for _, task := range m.tasks {
		if task.Type == taskType && task.UserID == userID && wanted[task.ID] {
			deleted++
			continue
		}
		kept = append(kept, task)
	}
	m.tasks = kept
	return deleted, nil
}

func applyUpdate(task *domain.Task, update store.ReadyUpdate) {
	task.IsReady = true
	task.StatusCode = update.StatusCode
	task.StatusMessage = update.StatusMessage
	if update.Time != "" {
		task.Time = update.Time
	}
	if update.Cost != nil {
		task.Cost = update.Cost
	}
	task.ResultCount = update.ResultCount
}

// mockCredentialStore returns fixed credentials, or not-found when empty.
type mockCredentialStore struct {
	creds map[uuid.UUID]*domain.Credentials
}

var _ store.CredentialStore = (*mockCredentialStore)(nil)

func (m *mockCredentialStore) Upsert(ctx context.Context, creds *domain.Credentials) error {
	if m.creds == nil {
		m.creds = make(map[uuid.UUID]*domain.Credentials)
	}
	m.creds[creds.UserID] = creds
	return nil
}

func (m *mockCredentialStore) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Credentials, error) {
	if creds, ok := m.creds[userID]; ok {
		return creds, nil
	}
	return nil, store.ErrCredentialsNotFound
}

// mockProvider scripts provider behavior per method.
type mockProvider struct {
	taskPostFn   func(taskType domain.TaskType, params json.RawMessage) (*dataforseo.Response, error)
	tasksReadyFn func(taskType domain.TaskType) (*dataforseo.Response, []dataforseo.ReadyItem, error)
	taskGetFn    func(taskType domain.TaskType, id string) (*dataforseo.Response, error)
	liveFn       func(taskType domain.TaskType, params json.RawMessage) (*dataforseo.Response, error)

	taskGetCalls int
}

var _ Provider = (*mockProvider)(nil)

func (m *mockProvider) TaskPost(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error) {
	return m.taskPostFn(taskType, params)
}

func (m *mockProvider) TasksReady(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
) (*dataforseo.Response, []dataforseo.ReadyItem, error) {
	return m.tasksReadyFn(taskType)
}

func (m *mockProvider) TaskGet(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
	id string,
) (*dataforseo.Response, error) {
	m.taskGetCalls++
	return m.taskGetFn(taskType, id)
}

func (m *mockProvider) Live(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error) {
	return m.liveFn(taskType, params)
}

// mockCostRecorder collects recorded entries.
type mockCostRecorder struct {
	mu      sync.Mutex
	entries []*domain.CostEntry
	err     error
}

var _ CostRecorder = (*mockCostRecorder)(nil)

func (m *mockCostRecorder) Record(ctx context.Context, entry *domain.CostEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

// mockCostStore scripts ledger sums per method.
type mockCostStore struct {
	sumInRangeFn func(userID uuid.UUID, start, end time.Time) (float64, error)
	sumByTypeFn  func(userID uuid.UUID) (map[domain.TaskType]float64, error)
	totalFn      func(userID uuid.UUID) (float64, error)
}

var _ store.CostStore = (*mockCostStore)(nil)

func (m *mockCostStore) Create(ctx context.Context, entry *domain.CostEntry) error {
	return nil
}

func (m *mockCostStore) SumInRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (float64, error) {
	return m.sumInRangeFn(userID, start, end)
}

func (m *mockCostStore) SumByType(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.TaskType]float64, error) {
	return m.sumByTypeFn(userID)
}

func (m *mockCostStore) TotalForUser(ctx context.Context, userID uuid.UUID) (float64, error) {
	return m.totalFn(userID)
}

// mockStatsStore returns a fixed rollup or not-found.
type mockStatsStore struct {
	stats *domain.DashboardStats
}

var _ store.StatsStore = (*mockStatsStore)(nil)

func (m *mockStatsStore) ApplyCost(ctx context.Context, userID uuid.UUID, cost float64) error {
	return nil
}

func (m *mockStatsStore) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.DashboardStats, error) {
	if m.stats == nil {
		return nil, store.ErrStatsNotFound
	}
	return m.stats, nil
}
