package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/store"
)

func testCredentials(userID uuid.UUID) *domain.Credentials {
	return &domain.Credentials{UserID: userID, Login: "login@example.com", Password: "secret"}
}

func floatPtr(v float64) *float64 { return &v }

func acceptedEnvelope(id string, cost float64) dataforseo.TaskEnvelope {
	return dataforseo.TaskEnvelope{
		ID:            id,
		StatusCode:    20100,
		StatusMessage: "Task Created.",
		Time:          "0.01 sec.",
		Cost:          floatPtr(cost),
		Path:          []string{"v3", "serp", "google", "organic", "task_post"},
		Data:          json.RawMessage(`{"keyword":"coffee"}`),
	}
}

type taskServiceFixture struct {
	svc      *TaskServiceImpl
	tasks    *mockTaskStore
	creds    *mockCredentialStore
	provider *mockProvider
	costs    *mockCostRecorder
	userID   uuid.UUID
}

func newTaskServiceFixture(t *testing.T) *taskServiceFixture {
	t.Helper()
	userID := uuid.New()
	f := &taskServiceFixture{
		tasks:    &mockTaskStore{},
		provider: &mockProvider{},
		costs:    &mockCostRecorder{},
		userID:   userID,
	}
	f.creds = &mockCredentialStore{
		creds: map[uuid.UUID]*domain.Credentials{userID: testCredentials(userID)},
	}
	f.svc = NewTaskService(f.tasks, f.creds, f.provider, f.costs, nil)
	return f
}

func TestSubmitPersistsOneRowPerProviderTask(t *testing.T) {
	f := newTaskServiceFixture(t)
	params := json.RawMessage(`{"keyword":"coffee","location_name":"United States"}`)

	f.provider.taskPostFn = func(taskType domain.TaskType, p json.RawMessage) (*dataforseo.Response, error) {
		assert.Equal(t, domain.TaskTypeSERP, taskType)
		assert.JSONEq(t, string(params), string(p))
		return &dataforseo.Response{
			StatusCode: 20000,
			Cost:       0.006,
			Tasks: []dataforseo.TaskEnvelope{
				acceptedEnvelope("t1", 0.003),
				acceptedEnvelope("t2", 0.003),
			},
		}, nil
	}

	resp, err := f.svc.Submit(context.Background(), f.userID, domain.TaskTypeSERP, params)
	require.NoError(t, err)
	assert.Len(t, resp.Tasks, 2)

	stored, err := f.tasks.ListByUser(context.Background(), domain.TaskTypeSERP, f.userID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, task := range stored {
		assert.False(t, task.IsReady)
		assert.JSONEq(t, string(params), string(task.Params))
		assert.Equal(t, f.userID, task.UserID)
	}

	require.Len(t, f.costs.entries, 2)
	assert.Equal(t, "/v3/serp/google/organic/task_post", f.costs.entries[0].APIEndpoint)
	assert.InDelta(t, 0.003, f.costs.entries[0].Cost, 1e-9)
}

func TestSubmitProviderErrorPersistsNothing(t *testing.T) {
	f := newTaskServiceFixture(t)

	f.provider.taskPostFn = func(domain.TaskType, json.RawMessage) (*dataforseo.Response, error) {
		return nil, &dataforseo.ProviderError{StatusCode: 40100, Message: "Authentication failed."}
	}

	_, err := f.svc.Submit(context.Background(), f.userID, domain.TaskTypeSERP,
		json.RawMessage(`{"keyword":"coffee"}`))
	require.Error(t, err)

	stored, err := f.tasks.ListByUser(context.Background(), domain.TaskTypeSERP, f.userID)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, f.costs.entries)
}

func TestSubmitSkipsRejectedEnvelopes(t *testing.T) {
	f := newTaskServiceFixture(t)

	rejected := acceptedEnvelope("bad", 0)
	rejected.StatusCode = 40501
	rejected.StatusMessage = "Invalid Field."

	f.provider.taskPostFn = func(domain.TaskType, json.RawMessage) (*dataforseo.Response, error) {
		return &dataforseo.Response{
			StatusCode: 20000,
			Tasks:      []dataforseo.TaskEnvelope{acceptedEnvelope("ok", 0.003), rejected},
		}, nil
	}

	_, err := f.svc.Submit(context.Background(), f.userID, domain.TaskTypeSERP,
		json.RawMessage(`{"keyword":"coffee"}`))
	require.NoError(t, err)

	stored, err := f.tasks.ListByUser(context.Background(), domain.TaskTypeSERP, f.userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "ok", stored[0].ID)
}

func TestSubmitWithoutCredentials(t *testing.T) {
	f := newTaskServiceFixture(t)
	f.creds.creds = nil

	_, err := f.svc.Submit(context.Background(), f.userID, domain.TaskTypeSERP,
		json.RawMessage(`{"keyword":"coffee"}`))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSubmitUnsupportedType(t *testing.T) {
	f := newTaskServiceFixture(t)

	_, err := f.svc.Submit(context.Background(), f.userID, domain.TaskTypeDomainRankOverview,
		json.RawMessage(`{"target":"example.com"}`))
	assert.ErrorIs(t, err, dataforseo.ErrUnsupportedOperation)
}

func TestSubmitLivePersistsReadyRecordWithResult(t *testing.T) {
	f := newTaskServiceFixture(t)
	params := json.RawMessage(`{"target":"example.com","location_name":"United States"}`)

	envelope := acceptedEnvelope("live-1", 0.012)
	envelope.StatusCode = 20000
	envelope.StatusMessage = "Ok."
	envelope.Result = json.RawMessage(`[{"items":[{"domain":"rival.com"}]}]`)
	envelope.ResultCount = 1

	f.provider.liveFn = func(taskType domain.TaskType, p json.RawMessage) (*dataforseo.Response, error) {
		assert.Equal(t, domain.TaskTypeDomainCompetitors, taskType)
		return &dataforseo.Response{
			StatusCode: 20000,
			Tasks:      []dataforseo.TaskEnvelope{envelope},
		}, nil
	}

	_, err := f.svc.SubmitLive(context.Background(), f.userID, domain.TaskTypeDomainCompetitors, params)
	require.NoError(t, err)

	stored, err := f.tasks.GetForUser(context.Background(),
		domain.TaskTypeDomainCompetitors, "live-1", f.userID)
	require.NoError(t, err)
	assert.True(t, stored.IsReady)
	assert.True(t, stored.HasResult())

	require.Len(t, f.costs.entries, 1)
	assert.Equal(t, "/v3/dataforseo_labs/google/competitors_domain/live", f.costs.entries[0].APIEndpoint)
}

func TestSubmitLiveUnsupportedType(t *testing.T) {
	f := newTaskServiceFixture(t)

	_, err := f.svc.SubmitLive(context.Background(), f.userID, domain.TaskTypeOnPage,
		json.RawMessage(`{"target":"example.com"}`))
	assert.ErrorIs(t, err, dataforseo.ErrUnsupportedOperation)
}

func TestGetTaskReadyDoesNotCallProvider(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:      "t1",
		UserID:  f.userID,
		Type:    domain.TaskTypeSERP,
		Params:  json.RawMessage(`{"keyword":"coffee"}`),
		IsReady: true,
	}))

	task, err := f.svc.GetTask(context.Background(), f.userID, domain.TaskTypeSERP, "t1")
	require.NoError(t, err)
	assert.True(t, task.IsReady)
	assert.Zero(t, f.provider.taskGetCalls)
}

func TestGetTaskReconcilesPendingRecord(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:     "t1",
		UserID: f.userID,
		Type:   domain.TaskTypeSERP,
		Params: json.RawMessage(`{"keyword":"coffee"}`),
	}))

	f.provider.taskGetFn = func(taskType domain.TaskType, id string) (*dataforseo.Response, error) {
		envelope := acceptedEnvelope(id, 0)
		envelope.StatusCode = 20000
		envelope.StatusMessage = "Ok."
		envelope.Result = json.RawMessage(`[{"items":[]}]`)
		envelope.ResultCount = 1
		return &dataforseo.Response{StatusCode: 20000, Tasks: []dataforseo.TaskEnvelope{envelope}}, nil
	}

	task, err := f.svc.GetTask(context.Background(), f.userID, domain.TaskTypeSERP, "t1")
	require.NoError(t, err)
	assert.True(t, task.IsReady)
	assert.True(t, task.HasResult())
	assert.Equal(t, 1, f.provider.taskGetCalls)
}

func TestGetTaskProviderDownReturnsStoredRecord(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:     "t1",
		UserID: f.userID,
		Type:   domain.TaskTypeSERP,
		Params: json.RawMessage(`{"keyword":"coffee"}`),
	}))

	f.provider.taskGetFn = func(domain.TaskType, string) (*dataforseo.Response, error) {
		return nil, errors.New("connection refused")
	}

	task, err := f.svc.GetTask(context.Background(), f.userID, domain.TaskTypeSERP, "t1")
	require.NoError(t, err)
	assert.False(t, task.IsReady)
}

func TestGetTaskOwnershipIndistinguishableFromMissing(t *testing.T) {
	f := newTaskServiceFixture(t)
	otherUser := uuid.New()

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:     "t1",
		UserID: otherUser,
		Type:   domain.TaskTypeSERP,
		Params: json.RawMessage(`{"keyword":"coffee"}`),
	}))

	_, err := f.svc.GetTask(context.Background(), f.userID, domain.TaskTypeSERP, "t1")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestReconcileFetchesReadyTasks(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:     "t1",
		UserID: f.userID,
		Type:   domain.TaskTypeSERP,
		Params: json.RawMessage(`{"keyword":"coffee"}`),
	}))

	f.provider.tasksReadyFn = func(domain.TaskType) (*dataforseo.Response, []dataforseo.ReadyItem, error) {
		return &dataforseo.Response{StatusCode: 20000},
			[]dataforseo.ReadyItem{{ID: "t1"}, {ID: "untracked"}}, nil
	}
	f.provider.taskGetFn = func(taskType domain.TaskType, id string) (*dataforseo.Response, error) {
		envelope := acceptedEnvelope(id, 0)
		envelope.StatusCode = 20000
		envelope.Result = json.RawMessage(`[{"items":[]}]`)
		return &dataforseo.Response{StatusCode: 20000, Tasks: []dataforseo.TaskEnvelope{envelope}}, nil
	}

	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeSERP))

	// The untracked id is skipped without a result fetch.
	assert.Equal(t, 1, f.provider.taskGetCalls)

	task, err := f.tasks.GetForUser(context.Background(), domain.TaskTypeSERP, "t1", f.userID)
	require.NoError(t, err)
	assert.True(t, task.IsReady)
}

func TestReconcileMarksReadyBeforeResultFetch(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:            "t1",
		UserID:        f.userID,
		Type:          domain.TaskTypeSERP,
		StatusCode:    20100,
		StatusMessage: "Task Created.",
		Time:          "0.01 sec.",
		Params:        json.RawMessage(`{"keyword":"coffee"}`),
	}))

	f.provider.tasksReadyFn = func(domain.TaskType) (*dataforseo.Response, []dataforseo.ReadyItem, error) {
		return &dataforseo.Response{StatusCode: 20000}, []dataforseo.ReadyItem{{ID: "t1"}}, nil
	}
	f.provider.taskGetFn = func(domain.TaskType, string) (*dataforseo.Response, error) {
		return nil, errors.New("connection refused")
	}

	// A listing without a result fetch still flips the readiness flag and
	// leaves the stored result empty.
	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeSERP))

	task, err := f.tasks.GetForUser(context.Background(), domain.TaskTypeSERP, "t1", f.userID)
	require.NoError(t, err)
	assert.True(t, task.IsReady)
	assert.False(t, task.HasResult())
	assert.Equal(t, 20000, task.StatusCode)
	assert.Equal(t, "0.01 sec.", task.Time)

	// The next run with a healthy provider fills the result in.
	f.provider.taskGetFn = func(taskType domain.TaskType, id string) (*dataforseo.Response, error) {
		envelope := acceptedEnvelope(id, 0)
		envelope.StatusCode = 20000
		envelope.Result = json.RawMessage(`[{"items":[]}]`)
		return &dataforseo.Response{StatusCode: 20000, Tasks: []dataforseo.TaskEnvelope{envelope}}, nil
	}
	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeSERP))

	task, err = f.tasks.GetForUser(context.Background(), domain.TaskTypeSERP, "t1", f.userID)
	require.NoError(t, err)
	assert.True(t, task.HasResult())
}

func TestReconcileAppliesListingStatusFields(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:     "t1",
		UserID: f.userID,
		Type:   domain.TaskTypeOnPage,
		Params: json.RawMessage(`{"target":"example.com"}`),
	}))

	f.provider.tasksReadyFn = func(domain.TaskType) (*dataforseo.Response, []dataforseo.ReadyItem, error) {
		return &dataforseo.Response{StatusCode: 20000}, []dataforseo.ReadyItem{{
			ID:            "t1",
			StatusCode:    20000,
			StatusMessage: "Ok.",
			Cost:          floatPtr(0.0125),
			ResultCount:   1,
		}}, nil
	}
	f.provider.taskGetFn = func(domain.TaskType, string) (*dataforseo.Response, error) {
		return nil, errors.New("timeout")
	}

	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeOnPage))

	task, err := f.tasks.GetForUser(context.Background(), domain.TaskTypeOnPage, "t1", f.userID)
	require.NoError(t, err)
	assert.True(t, task.IsReady)
	require.NotNil(t, task.Cost)
	assert.InDelta(t, 0.0125, *task.Cost, 1e-9)
	assert.Equal(t, 1, task.ResultCount)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newTaskServiceFixture(t)

	require.NoError(t, f.tasks.Create(context.Background(), &domain.Task{
		ID:     "t1",
		UserID: f.userID,
		Type:   domain.TaskTypeSERP,
		Params: json.RawMessage(`{"keyword":"coffee"}`),
	}))

	f.provider.tasksReadyFn = func(domain.TaskType) (*dataforseo.Response, []dataforseo.ReadyItem, error) {
		return &dataforseo.Response{StatusCode: 20000}, []dataforseo.ReadyItem{{ID: "t1"}}, nil
	}
	f.provider.taskGetFn = func(taskType domain.TaskType, id string) (*dataforseo.Response, error) {
		envelope := acceptedEnvelope(id, 0)
		envelope.StatusCode = 20000
		envelope.ResultCount = 3
		envelope.Result = json.RawMessage(`[{"items":[1,2,3]}]`)
		return &dataforseo.Response{StatusCode: 20000, Tasks: []dataforseo.TaskEnvelope{envelope}}, nil
	}

	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeSERP))
	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeSERP))

	task, err := f.tasks.GetForUser(context.Background(), domain.TaskTypeSERP, "t1", f.userID)
	require.NoError(t, err)
	assert.True(t, task.IsReady)
	assert.Equal(t, 3, task.ResultCount)

	// The second run sees a ready record with its result and refetches
	// nothing, so the ledger gains exactly one entry.
	assert.Equal(t, 1, f.provider.taskGetCalls)
	assert.Len(t, f.costs.entries, 1)
}

func TestSubmitRecordsZeroCostLedgerEntry(t *testing.T) {
	f := newTaskServiceFixture(t)

	f.provider.taskPostFn = func(domain.TaskType, json.RawMessage) (*dataforseo.Response, error) {
		free := acceptedEnvelope("free-1", 0)
		free.Cost = nil
		return &dataforseo.Response{
			StatusCode: 20000,
			Tasks:      []dataforseo.TaskEnvelope{free},
		}, nil
	}

	_, err := f.svc.Submit(context.Background(), f.userID, domain.TaskTypeSERP,
		json.RawMessage(`{"keyword":"coffee"}`))
	require.NoError(t, err)

	// A task the provider charged nothing for still counts toward the
	// user's task totals.
	require.Len(t, f.costs.entries, 1)
	assert.Equal(t, "free-1", f.costs.entries[0].TaskID)
	assert.Zero(t, f.costs.entries[0].Cost)
}

func TestReconcileLiveOnlyTypeIsNoOp(t *testing.T) {
	f := newTaskServiceFixture(t)
	// No provider functions wired: any call would panic.
	require.NoError(t, f.svc.Reconcile(context.Background(), f.userID, domain.TaskTypeContentAnalysisSummary))
}
