package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/service"
	"github.com/seoforge/seoforge-api/internal/store"
)

// Reconciler reconciles one user's queued tasks of one type against the
// provider. Implemented by service.TaskService.
type Reconciler interface {
	Reconcile(ctx context.Context, userID uuid.UUID, taskType domain.TaskType) error
}

// PendingLister reports which users still have pending records per type.
type PendingLister interface {
	ListUsersWithPending(ctx context.Context, taskType domain.TaskType) ([]uuid.UUID, error)
}

// PollerConfig holds configuration for the readiness poller.
type PollerConfig struct {
	// Interval between poll sweeps. If zero, defaults to one minute.
	Interval time.Duration
}

// ReadinessPoller periodically sweeps the queued task types, asking the
// provider which pending tasks have completed and pulling their results
// in. Only users that actually have pending records are polled, so an
// idle deployment makes no provider calls.
type ReadinessPoller struct {
	reconciler Reconciler
	pending    PendingLister
	interval   time.Duration
	logger     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReadinessPoller creates a ReadinessPoller.
func NewReadinessPoller(
	reconciler Reconciler,
	pending PendingLister,
	cfg PollerConfig,
	logger *slog.Logger,
) *ReadinessPoller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReadinessPoller{
		reconciler: reconciler,
		pending:    pending,
		interval:   interval,
		logger:     logger.With("component", "readiness_poller"),
	}
}

// Start launches the poll loop. The first sweep runs immediately so a
// restart does not wait a full interval to catch up.
func (p *ReadinessPoller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.sweep(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.sweep(ctx)
			}
		}
	}()

	p.logger.Info("readiness poller started", "interval", p.interval)
}

// Stop cancels the poll loop and waits for an in-flight sweep to finish.
func (p *ReadinessPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("readiness poller stopped")
}

// sweep runs one reconciliation pass over all queued task types.
func (p *ReadinessPoller) sweep(ctx context.Context) {
	for _, taskType := range domain.AllTaskTypes {
		if !dataforseo.SupportsQueue(taskType) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		users, err := p.pending.ListUsersWithPending(ctx, taskType)
		if err != nil {
			p.logger.Error("failed to list users with pending tasks",
				"task_type", taskType,
				"error", err)
			continue
		}

		for _, userID := range users {
			if ctx.Err() != nil {
				return
			}

			err := p.reconciler.Reconcile(ctx, userID, taskType)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrNoCredentials):
				// Pending records whose owner removed their credentials
				// stay pending until credentials come back.
				p.logger.Debug("skipping user without credentials",
					"user_id", userID,
					"task_type", taskType)
			default:
				p.logger.Warn("reconciliation sweep failed for user",
					"user_id", userID,
					"task_type", taskType,
					"error", err)
			}
		}
	}
}

// Compile-time check that the store interface satisfies the poller's view.
var _ PendingLister = (store.TaskStore)(nil)
