// Package quota enforces per-user submission limits: a daily cap on
// provider submissions and a ceiling on in-flight ones. Counters live in
// Redis so every instance of the service sees the same numbers.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/seoforge/seoforge-api/internal/config"
)

var (
	// ErrDailyLimitExceeded indicates the user has used up today's
	// submission allowance.
	ErrDailyLimitExceeded = errors.New("daily submission limit exceeded")

	// ErrTooManyConcurrent indicates the user already has the maximum
	// number of submissions in flight.
	ErrTooManyConcurrent = errors.New("too many concurrent submissions")
)

// dailyKeyTTL keeps expired day counters from accumulating. Two days
// covers any clock disagreement around midnight.
const dailyKeyTTL = 48 * time.Hour

// Manager tracks per-user submission counters in Redis.
type Manager struct {
	rdb      *redis.Client
	limits   config.QuotaConfig
	logger   *slog.Logger
	timeFunc func() time.Time // Injectable for testing
}

// NewManager creates a quota Manager on an existing Redis client.
func NewManager(rdb *redis.Client, limits config.QuotaConfig, logger *slog.Logger) *Manager {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		rdb:      rdb,
		limits:   limits,
		logger:   logger.With("component", "quota"),
		timeFunc: time.Now,
	}
}

// Acquire reserves one submission slot for the user. On success the
// returned release function must be called when the submission finishes;
// it frees the concurrency slot but not the daily count. A rejected
// acquisition consumes nothing.
func (m *Manager) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	concurrentKey := m.concurrentKey(userID)

	inFlight, err := m.rdb.Incr(ctx, concurrentKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to bump concurrency counter: %w", err)
	}
	if m.limits.MaxConcurrent > 0 && inFlight > int64(m.limits.MaxConcurrent) {
		m.rdb.Decr(ctx, concurrentKey)
		return nil, ErrTooManyConcurrent
	}

	dailyKey := m.dailyKey(userID)
	used, err := m.rdb.Incr(ctx, dailyKey).Result()
	if err != nil {
		m.rdb.Decr(ctx, concurrentKey)
		return nil, fmt.Errorf("failed to bump daily counter: %w", err)
	}
	if used == 1 {
		m.rdb.Expire(ctx, dailyKey, dailyKeyTTL)
	}
	if m.limits.DailyLimit > 0 && used > int64(m.limits.DailyLimit) {
		m.rdb.Decr(ctx, dailyKey)
		m.rdb.Decr(ctx, concurrentKey)
		return nil, ErrDailyLimitExceeded
	}

	release := func() {
		// Release happens during response teardown; the request context
		// may already be cancelled.
		if err := m.rdb.Decr(context.Background(), concurrentKey).Err(); err != nil {
			m.logger.Error("failed to release concurrency slot",
				"user_id", userID,
				"error", err)
		}
	}
	return release, nil
}

// Remaining reports how many submissions the user has left today. A
// disabled daily limit reports -1.
func (m *Manager) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.limits.DailyLimit <= 0 {
		return -1, nil
	}

	used, err := m.rdb.Get(ctx, m.dailyKey(userID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return m.limits.DailyLimit, nil
		}
		return 0, fmt.Errorf("failed to read daily counter: %w", err)
	}

	remaining := m.limits.DailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// DailyLimit exposes the configured daily cap for response headers.
func (m *Manager) DailyLimit() int {
	return m.limits.DailyLimit
}

func (m *Manager) concurrentKey(userID uuid.UUID) string {
	return "quota:concurrent:" + userID.String()
}

func (m *Manager) dailyKey(userID uuid.UUID) string {
	day := m.timeFunc().UTC().Format("2006-01-02")
	return "quota:daily:" + userID.String() + ":" + day
}
