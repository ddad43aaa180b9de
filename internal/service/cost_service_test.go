package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/seoforge-api/internal/domain"
)

func TestCostServiceByTypeFillsMissingTypes(t *testing.T) {
	costs := &mockCostStore{
		sumByTypeFn: func(uuid.UUID) (map[domain.TaskType]float64, error) {
			return map[domain.TaskType]float64{domain.TaskTypeSERP: 1.5}, nil
		},
	}
	svc := NewCostService(costs, &mockStatsStore{}, nil)

	totals, err := svc.ByType(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Len(t, totals, len(domain.AllTaskTypes))
	assert.InDelta(t, 1.5, totals[domain.TaskTypeSERP], 1e-9)
	assert.Zero(t, totals[domain.TaskTypeOnPage])
}

func TestCostServiceTodayUsesUTCDayWindow(t *testing.T) {
	var gotStart, gotEnd time.Time
	costs := &mockCostStore{
		sumInRangeFn: func(_ uuid.UUID, start, end time.Time) (float64, error) {
			gotStart, gotEnd = start, end
			return 0.42, nil
		},
	}
	svc := NewCostService(costs, &mockStatsStore{}, nil)
	svc.timeFunc = func() time.Time {
		return time.Date(2025, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC+3", 3*3600))
	}

	total, err := svc.Today(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.InDelta(t, 0.42, total, 1e-9)

	// 23:30 UTC+3 is 20:30 UTC, so the window is the UTC day.
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), gotEnd)
}

func TestCostServiceInRangeNormalizesToUTC(t *testing.T) {
	var gotStart, gotEnd time.Time
	costs := &mockCostStore{
		sumInRangeFn: func(_ uuid.UUID, start, end time.Time) (float64, error) {
			gotStart, gotEnd = start, end
			return 0.08, nil
		},
	}
	svc := NewCostService(costs, &mockStatsStore{}, nil)

	zone := time.FixedZone("UTC+3", 3*3600)
	start := time.Date(2025, 3, 1, 3, 0, 0, 0, zone)
	end := time.Date(2025, 4, 1, 3, 0, 0, 0, zone)

	total, err := svc.InRange(context.Background(), uuid.New(), start, end)
	require.NoError(t, err)
	assert.InDelta(t, 0.08, total, 1e-9)
	assert.Equal(t, time.UTC, gotStart.Location())
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), gotEnd)
}

func TestCostServiceTotal(t *testing.T) {
	costs := &mockCostStore{
		totalFn: func(uuid.UUID) (float64, error) { return 12.5, nil },
	}
	svc := NewCostService(costs, &mockStatsStore{}, nil)

	total, err := svc.Total(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.InDelta(t, 12.5, total, 1e-9)
}

func TestCostServiceStatsDefaultsToZeroRollup(t *testing.T) {
	svc := NewCostService(&mockCostStore{}, &mockStatsStore{}, nil)
	userID := uuid.New()

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, stats.UserID)
	assert.Zero(t, stats.TasksTotal)
	assert.Zero(t, stats.CostTotal)
}

func TestCostServiceStatsReturnsRollup(t *testing.T) {
	userID := uuid.New()
	svc := NewCostService(&mockCostStore{}, &mockStatsStore{
		stats: &domain.DashboardStats{UserID: userID, TasksTotal: 7, CostTotal: 0.21},
	}, nil)

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TasksTotal)
	assert.InDelta(t, 0.21, stats.CostTotal, 1e-9)
}
