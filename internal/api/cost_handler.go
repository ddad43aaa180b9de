package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/seoforge/seoforge-api/internal/service"
)

// CostHandler handles the cost ledger read endpoints backing the
// dashboard's spend widgets.
type CostHandler struct {
	costService service.CostService
}

// NewCostHandler creates a new CostHandler.
func NewCostHandler(costService service.CostService) *CostHandler {
	return &CostHandler{costService: costService}
}

// Total handles GET /costs/total. Optional start/end query parameters
// (RFC 3339) narrow the sum to a time window; without them the sum is
// all-time.
func (h *CostHandler) Total(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var (
		total float64
		err   error
	)

	startRaw := r.URL.Query().Get("start")
	endRaw := r.URL.Query().Get("end")
	if startRaw != "" || endRaw != "" {
		start, end, parseErr := parseRange(startRaw, endRaw)
		if parseErr != nil {
			RespondWithError(w, r, http.StatusBadRequest,
				"start and end must both be RFC 3339 timestamps with start before end")
			return
		}
		total, err = h.costService.InRange(r.Context(), userID, start, end)
	} else {
		total, err = h.costService.Total(r.Context(), userID)
	}

	if err != nil {
		slog.Error("failed to read total spend", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to read costs")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, CostTotalResponse{Total: total})
}

// parseRange parses a start/end query pair. Both must be present and
// ordered.
func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s", startRaw, endRaw)
	}
	return start, end, nil
}

// ByType handles GET /costs/by-type.
func (h *CostHandler) ByType(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	totals, err := h.costService.ByType(r.Context(), userID)
	if err != nil {
		slog.Error("failed to read spend by type", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to read costs")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, CostByTypeResponse{Totals: totals})
}

// Today handles GET /costs/today.
func (h *CostHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	total, err := h.costService.Today(r.Context(), userID)
	if err != nil {
		slog.Error("failed to read today's spend", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to read costs")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, CostTotalResponse{Total: total})
}

// Stats handles GET /costs/stats.
func (h *CostHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	stats, err := h.costService.Stats(r.Context(), userID)
	if err != nil {
		slog.Error("failed to read dashboard stats", "error", err, "user_id", userID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to read stats")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}
