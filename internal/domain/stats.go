package domain

import (
	"time"

	"github.com/google/uuid"
)

// DashboardStats is the per-user rollup maintained by the cost recorder.
// It exists purely so the dashboard's landing page does not have to fold
// the full ledger on every load; the ledger remains the source of truth.
type DashboardStats struct {
	UserID     uuid.UUID `json:"user_id"`
	TasksTotal int       `json:"tasks_total"`
	CostTotal  float64   `json:"cost_total"`
	UpdatedAt  time.Time `json:"updated_at"`
}
