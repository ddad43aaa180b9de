package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/postgres"
)

func newCostStore(t *testing.T) (*postgres.PostgresCostStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewPostgresCostStore(db, nil), mock
}

func TestCostStoreCreate(t *testing.T) {
	costStore, mock := newCostStore(t)

	entry, err := domain.NewCostEntry(uuid.New(), "task-1", domain.TaskTypeSERP,
		0.0025, "/v3/serp/google/organic/task_post", 20100)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO task_costs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, costStore.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostStoreCreateRejectsNegativeCost(t *testing.T) {
	costStore, mock := newCostStore(t)

	entry := &domain.CostEntry{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		TaskID:      "task-1",
		TaskType:    domain.TaskTypeSERP,
		Cost:        -0.01,
		APIEndpoint: "/v3/serp/google/organic/task_post",
		StatusCode:  20100,
		CreatedAt:   time.Now().UTC(),
	}

	err := costStore.Create(context.Background(), entry)
	assert.ErrorIs(t, err, domain.ErrNegativeCost)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostStoreSumInRange(t *testing.T) {
	costStore, mock := newCostStore(t)
	userID := uuid.New()
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(cost\), 0\).*FROM task_costs.*created_at >= \$2 AND created_at < \$3`).
		WithArgs(userID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(1.25))

	total, err := costStore.SumInRange(context.Background(), userID, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, total, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostStoreSumByType(t *testing.T) {
	costStore, mock := newCostStore(t)
	userID := uuid.New()

	rows := sqlmock.NewRows([]string{"task_type", "sum"}).
		AddRow("serp", 0.75).
		AddRow("on_page", 2.5)

	mock.ExpectQuery(`SELECT task_type, COALESCE\(SUM\(cost\), 0\)`).
		WithArgs(userID).
		WillReturnRows(rows)

	totals, err := costStore.SumByType(context.Background(), userID)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, totals[domain.TaskTypeSERP], 1e-9)
	assert.InDelta(t, 2.5, totals[domain.TaskTypeOnPage], 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCostStoreTotalForUserEmptyLedger(t *testing.T) {
	costStore, mock := newCostStore(t)
	userID := uuid.New()

	mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(cost\), 0\).*FROM task_costs.*WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))

	total, err := costStore.TotalForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
