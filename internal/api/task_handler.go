package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/api/shared"
	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/service"
	"github.com/seoforge/seoforge-api/internal/store"
)

// TaskHandler handles the per-module task and group endpoints.
type TaskHandler struct {
	taskService  service.TaskService
	groupService service.GroupService
	validator    *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, groupService service.GroupService) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		groupService: groupService,
		validator:    validator.New(),
	}
}

// Submit handles POST /{module}/tasks: a queued provider submission.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.taskService.Submit)
}

// SubmitLive handles POST /{module}/live: a synchronous provider
// submission whose results come back in the response.
func (h *TaskHandler) SubmitLive(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.taskService.SubmitLive)
}

// List handles GET /{module}/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, taskType, ok := requireUserAndModule(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), userID, taskType)
	if err != nil {
		slog.Error("failed to list tasks", "error", err, "user_id", userID, "module", taskType)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks, Total: len(tasks)})
}

// Get handles GET /{module}/tasks/{taskID}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskType, ok := requireUserAndModule(w, r)
	if !ok {
		return
	}

	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskType, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		slog.Error("failed to get task", "error", err, "task_id", taskID, "module", taskType)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to get task")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, task)
}

// ListGroups handles GET /{module}/groups.
func (h *TaskHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, taskType, ok := requireUserAndModule(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	groups, total, err := h.groupService.ListGroups(r.Context(), userID, taskType, page, limit)
	if err != nil {
		slog.Error("failed to list groups", "error", err, "user_id", userID, "module", taskType)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to list groups")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, GroupListResponse{
		Groups: groups,
		Page:   page,
		Limit:  limit,
		Total:  total,
	})
}

// GetGroup handles GET /{module}/groups/{groupID}.
func (h *TaskHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, taskType, ok := requireUserAndModule(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")
	group, tasks, err := h.groupService.GetGroup(r.Context(), userID, taskType, groupID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "Group not found")
			return
		}
		slog.Error("failed to get group", "error", err, "group_id", groupID, "module", taskType)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to get group")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, GroupDetailResponse{Group: group, Tasks: tasks})
}

// DeleteGroup handles DELETE /{module}/groups/{groupID}.
func (h *TaskHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, taskType, ok := requireUserAndModule(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "groupID")
	deleted, err := h.groupService.DeleteGroup(r.Context(), userID, taskType, groupID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "Group not found")
			return
		}
		slog.Error("failed to delete group", "error", err, "group_id", groupID, "module", taskType)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete group")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, DeleteGroupResponse{Deleted: deleted})
}

// submitFunc is the shared shape of the queued and live submission paths.
type submitFunc func(
	ctx context.Context,
	userID uuid.UUID,
	taskType domain.TaskType,
	params json.RawMessage,
) (*dataforseo.Response, error)

func (h *TaskHandler) submit(w http.ResponseWriter, r *http.Request, fn submitFunc) {
	userID, taskType, ok := requireUserAndModule(w, r)
	if !ok {
		return
	}

	var req SubmitTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := validateTaskParams(taskType, req.Params); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := fn(r.Context(), userID, taskType, req.Params)
	if err != nil {
		h.respondSubmitError(w, r, err, taskType)
		return
	}

	// The provider envelope is passed through as-is.
	RespondWithJSON(w, r, http.StatusOK, resp)
}

// respondSubmitError maps submission failures onto HTTP statuses.
func (h *TaskHandler) respondSubmitError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	taskType domain.TaskType,
) {
	var providerErr *dataforseo.ProviderError

	switch {
	case errors.Is(err, service.ErrNoCredentials):
		RespondWithError(w, r, http.StatusUnauthorized,
			"Provider credentials must be configured before submitting tasks")
	case errors.Is(err, dataforseo.ErrUnsupportedOperation):
		RespondWithError(w, r, http.StatusNotFound,
			"This module does not support the requested submission mode")
	case errors.As(err, &providerErr):
		// Provider-side rejections come back as 502 with the provider's
		// own status text; the platform is fine, the upstream is not.
		shared.RespondWithErrorAndLog(w, r, http.StatusBadGateway,
			"Provider rejected the request: "+providerErr.Message, err)
	default:
		slog.Error("task submission failed", "error", err, "module", taskType)
		RespondWithError(w, r, http.StatusInternalServerError, "Task submission failed")
	}
}

// requiredTaskParam names the provider field every task object submitted
// to a module must carry. The provider would reject these submissions too,
// but catching them here avoids spending a provider call on them.
var requiredTaskParam = map[domain.TaskType]string{
	domain.TaskTypeSERP:                   "keyword",
	domain.TaskTypeOnPage:                 "target",
	domain.TaskTypeKeywordsForKeywords:    "keywords",
	domain.TaskTypeKeywordsForSite:        "target",
	domain.TaskTypeDomainCompetitors:      "target",
	domain.TaskTypeDomainRankOverview:     "target",
	domain.TaskTypeContentAnalysisSummary: "target",
}

// validateTaskParams checks every submitted task object for the module's
// required field. Params may be a single task object or an array of task
// objects, the two shapes the provider accepts.
func validateTaskParams(taskType domain.TaskType, params json.RawMessage) error {
	var objects []map[string]json.RawMessage
	if err := json.Unmarshal(params, &objects); err != nil {
		var single map[string]json.RawMessage
		if err := json.Unmarshal(params, &single); err != nil {
			return errors.New("params must be a task object or an array of task objects")
		}
		objects = []map[string]json.RawMessage{single}
	}
	if len(objects) == 0 {
		return errors.New("params must contain at least one task object")
	}

	field, ok := requiredTaskParam[taskType]
	if !ok {
		return nil
	}

	for i, object := range objects {
		if err := checkRequiredParam(object, field); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
	}
	return nil
}

// checkRequiredParam verifies one task object carries a usable value for
// the field: a non-empty string, or for "keywords" a non-empty string array.
func checkRequiredParam(object map[string]json.RawMessage, field string) error {
	raw, ok := object[field]
	if !ok {
		return fmt.Errorf("missing required field %q", field)
	}

	if field == "keywords" {
		var keywords []string
		if err := json.Unmarshal(raw, &keywords); err != nil || len(keywords) == 0 {
			return fmt.Errorf("field %q must be a non-empty array of keywords", field)
		}
		return nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil || value == "" {
		return fmt.Errorf("field %q must be a non-empty string", field)
	}
	return nil
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
