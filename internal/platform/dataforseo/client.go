package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/seoforge/seoforge-api/internal/config"
	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/logger"
	"github.com/seoforge/seoforge-api/internal/redact"
)

// maxResponseBytes caps how much of a provider response we are willing to
// read. SERP result bodies can be large but are bounded well under this.
const maxResponseBytes = 32 << 20

// Client talks to the DataForSEO v3 API. It is safe for concurrent use;
// per-user credentials are passed per call, not held on the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client from configuration.
// If logger is nil, the default logger is used.
func NewClient(cfg config.ProviderConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.With(slog.String("component", "dataforseo_client")),
	}
}

// TaskPost submits one queued task with the given parameters and returns
// the validated provider envelope. The provider accepts an array of param
// objects per call; this client submits exactly one.
func (c *Client) TaskPost(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
	params json.RawMessage,
) (*Response, error) {
	ep, ok := providerEndpoints[taskType]
	if !ok || ep.taskPost == "" {
		return nil, fmt.Errorf("%w: %s task_post", ErrUnsupportedOperation, taskType)
	}

	return c.post(ctx, creds, ep.taskPost, params)
}

// TasksReady lists the ids of completed queued tasks for the user's
// provider account. The listing carries no result bodies.
func (c *Client) TasksReady(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
) (*Response, []ReadyItem, error) {
	ep, ok := providerEndpoints[taskType]
	if !ok || ep.tasksReady == "" {
		return nil, nil, fmt.Errorf("%w: %s tasks_ready", ErrUnsupportedOperation, taskType)
	}

	resp, err := c.get(ctx, creds, ep.tasksReady)
	if err != nil {
		return nil, nil, err
	}

	// Ready ids are nested inside tasks[].result[].
	var items []ReadyItem
	for _, task := range resp.Tasks {
		if !task.HasResult() {
			continue
		}
		var batch []ReadyItem
		if err := json.Unmarshal(task.Result, &batch); err != nil {
			return nil, nil, fmt.Errorf("%w: tasks_ready result: %v", ErrMalformedResponse, err)
		}
		items = append(items, batch...)
	}

	return resp, items, nil
}

// TaskGet fetches the full results for one queued task id.
func (c *Client) TaskGet(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
	id string,
) (*Response, error) {
	ep, ok := providerEndpoints[taskType]
	if !ok || ep.taskGet == "" {
		return nil, fmt.Errorf("%w: %s task_get", ErrUnsupportedOperation, taskType)
	}

	return c.get(ctx, creds, fmt.Sprintf(ep.taskGet, id))
}

// Live performs a single synchronous call returning full results
// immediately.
func (c *Client) Live(
	ctx context.Context,
	creds *domain.Credentials,
	taskType domain.TaskType,
	params json.RawMessage,
) (*Response, error) {
	ep, ok := providerEndpoints[taskType]
	if !ok || ep.live == "" {
		return nil, fmt.Errorf("%w: %s live", ErrUnsupportedOperation, taskType)
	}

	return c.post(ctx, creds, ep.live, params)
}

// post sends a POST with the params wrapped in the provider's one-element
// array convention and decodes/validates the envelope.
func (c *Client) post(
	ctx context.Context,
	creds *domain.Credentials,
	path string,
	params json.RawMessage,
) (*Response, error) {
	body, err := json.Marshal([]json.RawMessage{params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, creds, path)
}

// get sends a GET and decodes/validates the envelope.
func (c *Client) get(ctx context.Context, creds *domain.Credentials, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, creds, path)
}

// do executes the request with the user's Basic auth and applies the
// boundary validation. No retry or backoff is attempted: provider
// failures propagate to the caller as-is.
func (c *Client) do(req *http.Request, creds *domain.Credentials, path string) (*Response, error) {
	log := logger.FromContextOrDefault(req.Context(), c.logger)

	req.SetBasicAuth(creds.Login, creds.Password)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("provider request failed",
			slog.String("path", path),
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Error("failed to close provider response body",
				slog.String("error", closeErr.Error()))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		log.Warn("provider returned non-200",
			slog.String("path", path),
			slog.Int("http_status", httpResp.StatusCode))
		return nil, &ProviderError{
			StatusCode: httpResp.StatusCode,
			Message:    http.StatusText(httpResp.StatusCode),
		}
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := resp.Validate(); err != nil {
		log.Warn("provider response rejected",
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode),
			slog.String("status_message", resp.StatusMessage))
		return nil, err
	}

	log.Debug("provider call completed",
		slog.String("path", path),
		slog.Int("status_code", resp.StatusCode),
		slog.Int("tasks_count", resp.TasksCount),
		slog.Duration("elapsed", time.Since(start)))

	return &resp, nil
}
