package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/api/shared"
	"github.com/seoforge/seoforge-api/internal/domain"
)

// Thin aliases so handlers read without the shared qualifier.

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	return shared.DecodeJSON(r, v)
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	shared.RespondWithJSON(w, r, status, data)
}

// RespondWithError writes a JSON error response with the given status code and message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	shared.RespondWithError(w, r, status, message)
}

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context, as placed there by the authentication middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// getPathTaskType resolves the {module} path parameter to a task type.
func getPathTaskType(r *http.Request) (domain.TaskType, bool) {
	module := chi.URLParam(r, "module")
	taskType := domain.TaskType(module)
	if !domain.IsValidTaskType(taskType) {
		return "", false
	}
	return taskType, true
}

// requireUserAndModule extracts the authenticated user and the module
// path parameter, writing the error response itself on failure.
func requireUserAndModule(
	w http.ResponseWriter,
	r *http.Request,
) (uuid.UUID, domain.TaskType, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, "", false
	}

	taskType, ok := getPathTaskType(r)
	if !ok {
		RespondWithError(w, r, http.StatusNotFound, "Unknown module")
		return uuid.Nil, "", false
	}

	return userID, taskType, true
}
