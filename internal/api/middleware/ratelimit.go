package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/seoforge/seoforge-api/internal/api/shared"
	"github.com/seoforge/seoforge-api/internal/quota"
	"github.com/seoforge/seoforge-api/internal/redact"
)

// RateLimitMiddleware enforces per-user submission quotas on the routes it
// wraps. It must run after Authenticate, which provides the user ID.
type RateLimitMiddleware struct {
	quotas *quota.Manager
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware.
func NewRateLimitMiddleware(quotas *quota.Manager) *RateLimitMiddleware {
	return &RateLimitMiddleware{quotas: quotas}
}

// Limit acquires a submission slot for the authenticated user before
// passing the request on, and releases the concurrency slot when the
// handler returns. Rejections carry X-RateLimit headers and a 429.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		release, err := m.quotas.Acquire(r.Context(), userID)
		if err != nil {
			m.setRateLimitHeaders(w, r)
			switch {
			case errors.Is(err, quota.ErrDailyLimitExceeded):
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Daily submission limit exceeded", err)
			case errors.Is(err, quota.ErrTooManyConcurrent):
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many concurrent submissions", err)
			default:
				slog.Error("quota check failed", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError,
					"Failed to check submission quota")
			}
			return
		}
		defer release()

		m.setRateLimitHeaders(w, r)
		next.ServeHTTP(w, r)
	})
}

// setRateLimitHeaders reports the daily allowance on the response. A
// header read failure is not worth failing the request over.
func (m *RateLimitMiddleware) setRateLimitHeaders(w http.ResponseWriter, r *http.Request) {
	limit := m.quotas.DailyLimit()
	if limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))

	if userID, ok := GetUserID(r); ok {
		if remaining, err := m.quotas.Remaining(r.Context(), userID); err == nil && remaining >= 0 {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
	}
}
