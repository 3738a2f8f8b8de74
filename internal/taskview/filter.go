package taskview

import (
	"strings"

	"taskflow/internal/model"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Criteria narrows a task list. Empty fields do not filter; all set fields must match.
type Criteria struct {
	Status   string `form:"status"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// Filter returns the tasks matching c, keeping their relative order.
func Filter(tasks []model.Task, c Criteria) []model.Task {
	search := strings.ToLower(c.Search)
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if c.Status != "" && c.Status != StatusAll && string(task.Status) != c.Status {
			continue
		}
		if c.Category != "" && task.Category != c.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.DescriptionText()), search) {
			continue
		}
		out = append(out, task)
	}
	return out
}
