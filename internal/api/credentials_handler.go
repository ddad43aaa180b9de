package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/store"
)

// CredentialsHandler handles the provider credential endpoints.
type CredentialsHandler struct {
	credentialStore store.CredentialStore
	validator       *validator.Validate
}

// NewCredentialsHandler creates a new CredentialsHandler.
func NewCredentialsHandler(credentialStore store.CredentialStore) *CredentialsHandler {
	return &CredentialsHandler{
		credentialStore: credentialStore,
		validator:       validator.New(),
	}
}

// Put handles PUT /credentials: it stores or replaces the caller's
// provider credentials.
func (h *CredentialsHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CredentialsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	creds, err := domain.NewCredentials(userID, req.Login, req.Password)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid credentials: "+err.Error())
		return
	}

	if err := h.credentialStore.Upsert(r.Context(), creds); err != nil {
		slog.Error("failed to store credentials", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to store credentials")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, CredentialsResponse{
		Login:     creds.Login,
		UpdatedAt: creds.UpdatedAt,
	})
}

// Get handles GET /credentials: it reports the stored login without the
// password.
func (h *CredentialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	creds, err := h.credentialStore.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrCredentialsNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "No credentials configured")
			return
		}
		slog.Error("failed to get credentials", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to get credentials")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, CredentialsResponse{
		Login:     creds.Login,
		UpdatedAt: creds.UpdatedAt,
	})
}
