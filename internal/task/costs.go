package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/service"
	"github.com/seoforge/seoforge-api/internal/store"
)

// TypeCostRecord is the asynq task type for one cost ledger append.
const TypeCostRecord = "cost:record"

// QueueCosts is the asynq queue cost entries are delivered on.
const QueueCosts = "costs"

// CostQueueClient queues ledger entries for asynchronous recording. Asynq
// retries delivery on worker failure, and entries that exhaust their
// retries land in the archive for manual replay, so accepted entries are
// recorded at least once.
type CostQueueClient struct {
	client   *asynq.Client
	maxRetry int
	logger   *slog.Logger
}

// Ensure CostQueueClient implements service.CostRecorder interface
var _ service.CostRecorder = (*CostQueueClient)(nil)

// NewCostQueueClient creates a CostQueueClient on an existing asynq client.
func NewCostQueueClient(client *asynq.Client, maxRetry int, logger *slog.Logger) *CostQueueClient {
	if client == nil {
		panic("asynq client cannot be nil")
	}
	if maxRetry <= 0 {
		maxRetry = 5
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CostQueueClient{
		client:   client,
		maxRetry: maxRetry,
		logger:   logger.With("component", "cost_queue"),
	}
}

// Record implements service.CostRecorder.Record.
func (c *CostQueueClient) Record(ctx context.Context, entry *domain.CostEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cost entry: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx,
		asynq.NewTask(TypeCostRecord, payload),
		asynq.Queue(QueueCosts),
		asynq.MaxRetry(c.maxRetry),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue cost entry: %w", err)
	}

	c.logger.Debug("cost entry queued",
		"queue_task_id", info.ID,
		"task_id", entry.TaskID,
		"cost", entry.Cost)
	return nil
}

// CostRecordHandler consumes queued cost entries: it appends the ledger
// row and folds the amount into the user's dashboard rollup.
type CostRecordHandler struct {
	costStore  store.CostStore
	statsStore store.StatsStore
	logger     *slog.Logger
}

// NewCostRecordHandler creates a CostRecordHandler.
func NewCostRecordHandler(
	costStore store.CostStore,
	statsStore store.StatsStore,
	logger *slog.Logger,
) *CostRecordHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &CostRecordHandler{
		costStore:  costStore,
		statsStore: statsStore,
		logger:     logger.With("component", "cost_record_handler"),
	}
}

// ProcessTask implements asynq.Handler.
// A payload that does not decode is dropped rather than retried; store
// failures are returned so asynq retries the delivery.
func (h *CostRecordHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var entry domain.CostEntry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		h.logger.Error("undecodable cost entry payload", "error", err)
		return fmt.Errorf("failed to decode cost entry: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.costStore.Create(ctx, &entry); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Redelivery of an entry that already landed.
			h.logger.Debug("cost entry already recorded", "entry_id", entry.ID)
			return nil
		}
		return fmt.Errorf("failed to append cost entry %s: %w", entry.ID, err)
	}

	if err := h.statsStore.ApplyCost(ctx, entry.UserID, entry.Cost); err != nil {
		// The ledger row is already in; returning an error here would retry
		// the whole delivery and double-count the append.
		h.logger.Error("failed to fold cost into dashboard rollup",
			"error", err,
			"entry_id", entry.ID,
			"user_id", entry.UserID)
	}

	h.logger.Debug("cost entry recorded",
		"entry_id", entry.ID,
		"task_id", entry.TaskID,
		"cost", entry.Cost)
	return nil
}

// NewCostMux returns the asynq mux for the cost worker.
func NewCostMux(handler *CostRecordHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeCostRecord, handler)
	return mux
}
