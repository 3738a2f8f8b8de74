package taskview

import (
	"math"
	"time"

	"taskflow/internal/model"
)

// Stats summarizes a task collection.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Active         int `json:"active"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// Compute derives Stats; CompletionRate is a rounded percentage, 0 for no tasks.
func Compute(tasks []model.Task, now time.Time) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, task := range tasks {
		switch task.Status {
		case model.StatusCompleted:
			s.Completed++
		case model.StatusActive:
			s.Active++
		}
		if IsOverdue(task, now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}
