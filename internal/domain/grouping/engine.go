// Package grouping implements the read-side aggregation of task records
// into presentation "groups": tasks sharing an endpoint-specific subset of
// their submission params and a 5-minute submission window are reported as
// one campaign-like unit with folded cost and result totals.
//
// Groups have no persisted lifecycle. They are recomputed from the task
// rows on every query, and pagination is applied only after the full
// in-memory aggregation.
package grouping

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/seoforge/seoforge-api/internal/domain"
)

// Group is one derived aggregate. Its representative Params are taken from
// the earliest member; TasksCount, TotalResults and TotalCost are folds
// over all members.
type Group struct {
	ID           string          `json:"id"`
	Key          Key             `json:"key"`
	Params       json.RawMessage `json:"params"`
	TasksCount   int             `json:"tasks_count"`
	TotalResults int             `json:"total_results"`
	TotalCost    float64         `json:"total_cost"`
	ReadyCount   int             `json:"ready_count"`
	CreatedAt    time.Time       `json:"created_at"`
	TaskIDs      []string        `json:"task_ids"`
}

// Build partitions the given tasks into groups. Every task belongs to
// exactly one group, and the union of all groups' members equals the input
// set. The returned groups are sorted by their earliest member's creation
// time, newest first.
func Build(tasks []*domain.Task) []*Group {
	byKey := make(map[string]*Group)
	order := make([]string, 0)

	for _, task := range tasks {
		key := KeyForTask(task)
		fp := key.fingerprint()

		group, ok := byKey[fp]
		if !ok {
			group = &Group{
				ID:        key.Encode(),
				Key:       key,
				Params:    task.Params,
				CreatedAt: task.CreatedAt,
			}
			byKey[fp] = group
			order = append(order, fp)
		}

		group.TasksCount++
		group.TotalResults += task.ResultCount
		group.TotalCost += task.CostValue()
		if task.IsReady {
			group.ReadyCount++
		}
		group.TaskIDs = append(group.TaskIDs, task.ID)

		// Representative params and timestamp come from the earliest member.
		if task.CreatedAt.Before(group.CreatedAt) {
			group.CreatedAt = task.CreatedAt
			group.Params = task.Params
		}
	}

	groups := make([]*Group, 0, len(order))
	for _, fp := range order {
		groups = append(groups, byKey[fp])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})

	return groups
}

// Page slices the aggregated groups for the requested page/limit.
// Pages are 1-based; out-of-range pages return an empty slice.
func Page(groups []*Group, page, limit int) []*Group {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	start := (page - 1) * limit
	if start >= len(groups) {
		return []*Group{}
	}

	end := start + limit
	if end > len(groups) {
		end = len(groups)
	}

	return groups[start:end]
}

// Member reports whether a task belongs to the group identified by key.
// It re-derives the task's own key, so membership stays consistent with
// Build under the same derivation.
func Member(key Key, task *domain.Task) bool {
	return KeyForTask(task).Equal(key)
}
