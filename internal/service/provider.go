package service

import (
	"context"
	"encoding/json"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
)

// Provider abstracts the upstream DataForSEO client so services can be
// tested without a network. Implemented by *dataforseo.Client.
type Provider interface {
	// TaskPost submits params to the task type's queued endpoint.
	TaskPost(
		ctx context.Context,
		creds *domain.Credentials,
		taskType domain.TaskType,
		params json.RawMessage,
	) (*dataforseo.Response, error)

	// TasksReady lists completed-but-unfetched task ids for the
	// credentials' provider account.
	TasksReady(
		ctx context.Context,
		creds *domain.Credentials,
		taskType domain.TaskType,
	) (*dataforseo.Response, []dataforseo.ReadyItem, error)

	// TaskGet fetches the result body for one queued task.
	TaskGet(
		ctx context.Context,
		creds *domain.Credentials,
		taskType domain.TaskType,
		id string,
	) (*dataforseo.Response, error)

	// Live submits params to the task type's synchronous endpoint.
	Live(
		ctx context.Context,
		creds *domain.Credentials,
		taskType domain.TaskType,
		params json.RawMessage,
	) (*dataforseo.Response, error)
}

// CostRecorder accepts ledger entries for asynchronous recording. The
// entry is durably queued rather than written inline, so a slow ledger
// never blocks the submission path.
type CostRecorder interface {
	Record(ctx context.Context, entry *domain.CostEntry) error
}
