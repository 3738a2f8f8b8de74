package taskview

import (
	"sort"
	"strings"
	"time"

	"taskflow/internal/model"
)

type SortKey string

const (
	SortCreated      SortKey = "created"
	SortDue          SortKey = "due"
	SortPriority     SortKey = "priority"
	SortAlphabetical SortKey = "alphabetical"
)

// ParseSortKey accepts the known keys case-insensitively; ok is false otherwise.
func ParseSortKey(raw string) (SortKey, bool) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case SortCreated, SortDue, SortPriority, SortAlphabetical:
		return key, true
	}
	return "", false
}

// PriorityRank orders priorities high > medium > low > anything else.
func PriorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 3
	case model.PriorityMedium:
		return 2
	case model.PriorityLow:
		return 1
	default:
		return 0
	}
}

// Sort returns a sorted copy. Unknown keys return the input order.
// The sort is stable, so ties keep their incoming order.
func Sort(tasks []model.Task, key SortKey) []model.Task {
	sorted := append([]model.Task(nil), tasks...)

	switch key {
	case SortCreated:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	case SortDue:
		type keyed struct {
			task model.Task
			due  time.Time
			ok   bool
		}
		items := make([]keyed, len(sorted))
		for i, task := range sorted {
			due, ok := dueTime(task, time.UTC)
			items[i] = keyed{task: task, due: due, ok: ok}
		}
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			switch {
			case a.ok && b.ok:
				return a.due.Before(b.due)
			case a.ok:
				return true
			default:
				return false
			}
		})
		for i := range items {
			sorted[i] = items[i].task
		}
	case SortPriority:
		sort.SliceStable(sorted, func(i, j int) bool {
			return PriorityRank(sorted[i].Priority) > PriorityRank(sorted[j].Priority)
		})
	case SortAlphabetical:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Title < sorted[j].Title
		})
	}
	return sorted
}
