package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/domain/grouping"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/service"
	"github.com/seoforge/seoforge-api/internal/store"
)

// mockUserStore is an in-memory store.UserStore for handler tests. The
// password is kept as given; hashing belongs to the real store.
type mockUserStore struct {
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*mockUserStore)(nil)

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[uuid.UUID]*domain.User),
	}
}

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	user.HashedPassword = "hashed:" + user.Password
	user.Password = ""
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

// prefixVerifier matches the mockUserStore's fake hashing.
type prefixVerifier struct{}

func (prefixVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return errMismatch
}

var errMismatch = &mismatchError{}

type mismatchError struct{}

func (*mismatchError) Error() string { return "password mismatch" }

// mockCredentialStore is an in-memory store.CredentialStore.
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

// mockTaskService scripts the task lifecycle per method.
type mockTaskService struct {
	submitFn     func(userID uuid.UUID, taskType domain.TaskType, params json.RawMessage) (*dataforseo.Response, error)
	submitLiveFn func(userID uuid.UUID, taskType domain.TaskType, params json.RawMessage) (*dataforseo.Response, error)
	listFn       func(userID uuid.UUID, taskType domain.TaskType) ([]*domain.Task, error)
	getFn        func(userID uuid.UUID, taskType domain.TaskType, id string) (*domain.Task, error)
}

var _ service.TaskService = (*mockTaskService)(nil)

func (m *mockTaskService) Submit(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error) {
	return m.submitFn(userID, taskType, params)
}

func (m *mockTaskService) SubmitLive(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error) {
	return m.submitLiveFn(userID, taskType, params)
}

func (m *mockTaskService) ListTasks(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
) ([]*domain.Task, error) {
	return m.listFn(userID, taskType)
}

func (m *mockTaskService) GetTask(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	id string,
) (*domain.Task, error) {
	return m.getFn(userID, taskType, id)
}

func (m *mockTaskService) Reconcile(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
) error {
	return nil
}

// mockGroupService scripts the group view per method.
type mockGroupService struct {
	listFn   func(userID uuid.UUID, taskType domain.TaskType, page, limit int) ([]*grouping.Group, int, error)
	getFn    func(userID uuid.UUID, taskType domain.TaskType, groupID string) (*grouping.Group, []*domain.Task, error)
	deleteFn func(userID uuid.UUID, taskType domain.TaskType, groupID string) (int64, error)
}

var _ service.GroupService = (*mockGroupService)(nil)

func (m *mockGroupService) ListGroups(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	page, limit int,
) ([]*grouping.Group, int, error) {
	return m.listFn(userID, taskType, page, limit)
}

func (m *mockGroupService) GetGroup(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	groupID string,
) (*grouping.Group, []*domain.Task, error) {
	return m.getFn(userID, taskType, groupID)
}

func (m *mockGroupService) DeleteGroup(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	groupID string,
) (int64, error) {
	return m.deleteFn(userID, taskType, groupID)
}

// mockCostService returns fixed ledger sums.
type mockCostService struct {
	total     float64
	today     float64
	byType    map[domain.TaskType]float64
	stats     *domain.DashboardStats
	statErr   error
	inRangeFn func(start, end time.Time) (float64, error)
}

var _ service.CostService = (*mockCostService)(nil)

func (m *mockCostService) Total(ctx context.Context, userID uuid.UUID) (float64, error) {
	return m.total, nil
}

func (m *mockCostService) ByType(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.TaskType]float64, error) {
	return m.byType, nil
}

func (m *mockCostService) InRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (float64, error) {
	if m.inRangeFn != nil {
		return m.inRangeFn(start, end)
	}
	return m.total, nil
}

func (m *mockCostService) Today(ctx context.Context, userID uuid.UUID) (float64, error) {
	return m.today, nil
}

func (m *mockCostService) Stats(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.DashboardStats, error) {
	if m.statErr != nil {
		return nil, m.statErr
	}
	return m.stats, nil
}
