package dataforseo

import (
	"encoding/json"
	"fmt"

	"github.com/seoforge/seoforge-api/internal/domain"
)

// Provider status code ranges. DataForSEO reports 20xxx for success and
// 40xxx/50xxx for errors, both at the response and the per-task level.
const (
	statusOKMin = 20000
	statusOKMax = 29999

	// StatusOK is the generic success code the provider reports for a
	// completed operation.
	StatusOK = 20000

	// StatusTaskInQueue is the per-task code for a queued task whose
	// results are not available yet.
	StatusTaskInQueue = 40602
)

// Response is the top-level envelope every DataForSEO endpoint returns.
type Response struct {
	Version       string         `json:"version"`
	StatusCode    int            `json:"status_code"`
	StatusMessage string         `json:"status_message"`
	Time          string         `json:"time"`
	Cost          float64        `json:"cost"`
	TasksCount    int            `json:"tasks_count"`
	TasksError    int            `json:"tasks_error"`
	Tasks         []TaskEnvelope `json:"tasks"`
}

// TaskEnvelope is one task entry inside a provider response. Data echoes
// the submitted parameters as the provider understood them (which may
// differ from what was sent); Result is present only on task_get and live
// responses.
type TaskEnvelope struct {
	ID            string          `json:"id"`
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Time          string          `json:"time"`
	Cost          *float64        `json:"cost"`
	ResultCount   int             `json:"result_count"`
	Path          []string        `json:"path"`
	Data          json.RawMessage `json:"data"`
	Result        json.RawMessage `json:"result"`
}

// ReadyItem is one entry of a tasks_ready listing: a completed task id plus
// routing metadata, intentionally without any result body. Some modules
// include partial status fields in the listing; those arrive here and are
// zero-valued when the module omits them.
type ReadyItem struct {
	ID             string   `json:"id"`
	Endpoint       string   `json:"endpoint"`
	DatePosted     string   `json:"date_posted"`
	Tag            string   `json:"tag"`
	SearchEngine   string   `json:"se"`
	SearchEngineTy string   `json:"se_type"`
	StatusCode     int      `json:"status_code"`
	StatusMessage  string   `json:"status_message"`
	Cost           *float64 `json:"cost"`
	ResultCount    int      `json:"result_count"`
}

// Succeeded reports whether the envelope-level status code is in the
// provider's success range.
func (r *Response) Succeeded() bool {
	return r.StatusCode >= statusOKMin && r.StatusCode <= statusOKMax
}

// Validate rejects malformed or failed provider responses at the boundary.
// A non-success envelope status becomes a *ProviderError; a success
// envelope whose tasks are missing ids is treated as malformed.
func (r *Response) Validate() error {
	if !r.Succeeded() {
		return &ProviderError{StatusCode: r.StatusCode, Message: r.StatusMessage}
	}

	for i, task := range r.Tasks {
		if task.ID == "" {
			return fmt.Errorf("%w: task %d has no id", ErrMalformedResponse, i)
		}
	}

	return nil
}

// InQueue reports whether this per-task envelope says the queued task is
// not complete yet.
func (t *TaskEnvelope) InQueue() bool {
	return t.StatusCode == StatusTaskInQueue
}

// HasResult reports whether the envelope carries a non-empty result body.
func (t *TaskEnvelope) HasResult() bool {
	return len(t.Result) > 0 && string(t.Result) != "null"
}

// endpoints describes the provider paths for one task type. Types without
// a queue surface have only Live set, and vice versa.
type endpoints struct {
	taskPost   string
	tasksReady string
	taskGet    string // format string with one %s for the task id
	live       string
}

// providerEndpoints routes each supported task type to its DataForSEO v3
// paths. task_get for on_page uses the summary endpoint, which is that
// module's result-fetch shape.
var providerEndpoints = map[domain.TaskType]endpoints{
	domain.TaskTypeSERP: {
		taskPost:   "/v3/serp/google/organic/task_post",
		tasksReady: "/v3/serp/google/organic/tasks_ready",
		taskGet:    "/v3/serp/google/organic/task_get/regular/%s",
		live:       "/v3/serp/google/organic/live/regular",
	},
	domain.TaskTypeOnPage: {
		taskPost:   "/v3/on_page/task_post",
		tasksReady: "/v3/on_page/tasks_ready",
		taskGet:    "/v3/on_page/summary/%s",
	},
	domain.TaskTypeKeywordsForKeywords: {
		taskPost:   "/v3/keywords_data/google_ads/keywords_for_keywords/task_post",
		tasksReady: "/v3/keywords_data/google_ads/keywords_for_keywords/tasks_ready",
		taskGet:    "/v3/keywords_data/google_ads/keywords_for_keywords/task_get/%s",
		live:       "/v3/keywords_data/google_ads/keywords_for_keywords/live",
	},
	domain.TaskTypeKeywordsForSite: {
		taskPost:   "/v3/keywords_data/google_ads/keywords_for_site/task_post",
		tasksReady: "/v3/keywords_data/google_ads/keywords_for_site/tasks_ready",
		taskGet:    "/v3/keywords_data/google_ads/keywords_for_site/task_get/%s",
		live:       "/v3/keywords_data/google_ads/keywords_for_site/live",
	},
	domain.TaskTypeDomainCompetitors: {
		live: "/v3/dataforseo_labs/google/competitors_domain/live",
	},
	domain.TaskTypeDomainRankOverview: {
		live: "/v3/dataforseo_labs/google/domain_rank_overview/live",
	},
	domain.TaskTypeContentAnalysisSummary: {
		live: "/v3/content_analysis/summary/live",
	},
}

// TaskPostPath returns the provider path queued submissions for the task
// type are posted to, or "" when the type has no queue surface. Used for
// cost attribution.
func TaskPostPath(taskType domain.TaskType) string {
	return providerEndpoints[taskType].taskPost
}

// LivePath returns the provider path live submissions for the task type
// are posted to, or "" when the type has no live surface.
func LivePath(taskType domain.TaskType) string {
	return providerEndpoints[taskType].live
}

// TaskGetPath returns the provider path the given task's results are
// fetched from, or "" when the type has no queue surface.
func TaskGetPath(taskType domain.TaskType, id string) string {
	ep := providerEndpoints[taskType]
	if ep.taskGet == "" {
		return ""
	}
	return fmt.Sprintf(ep.taskGet, id)
}

// SupportsQueue reports whether the task type has task_post/tasks_ready/
// task_get endpoints.
func SupportsQueue(taskType domain.TaskType) bool {
	ep, ok := providerEndpoints[taskType]
	return ok && ep.taskPost != ""
}

// SupportsLive reports whether the task type has a live endpoint.
func SupportsLive(taskType domain.TaskType) bool {
	ep, ok := providerEndpoints[taskType]
	return ok && ep.live != ""
}
