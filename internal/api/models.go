package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/seoforge-api/internal/domain"
	"github.com/seoforge/seoforge-api/internal/domain/grouping"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token
// refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialsRequest defines the payload for storing provider credentials.
type CredentialsRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CredentialsResponse echoes the stored provider login. The password is
// write-only: it never appears in any response.
type CredentialsResponse struct {
	Login     string    `json:"login"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitTaskRequest wraps the provider parameters for a submission. The
// params travel to the provider as given; only basic shape is checked here.
type SubmitTaskRequest struct {
	Params json.RawMessage `json:"params" validate:"required"`
}

// TaskListResponse defines the response for the per-module task listing.
type TaskListResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int            `json:"total"`
}

// GroupListResponse defines the paginated response for the group listing.
type GroupListResponse struct {
	Groups []*grouping.Group `json:"groups"`
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
	Total  int               `json:"total"`
}

// GroupDetailResponse defines the response for one group with its members.
type GroupDetailResponse struct {
	Group *grouping.Group `json:"group"`
	Tasks []*domain.Task  `json:"tasks"`
}

// DeleteGroupResponse reports how many task records a group delete removed.
type DeleteGroupResponse struct {
	Deleted int64 `json:"deleted"`
}

// CostTotalResponse defines the response for the total and today cost
// endpoints.
type CostTotalResponse struct {
	Total float64 `json:"total"`
}

// CostByTypeResponse defines the response for the per-type cost breakdown.
type CostByTypeResponse struct {
	Totals map[domain.TaskType]float64 `json:"totals"`
}
