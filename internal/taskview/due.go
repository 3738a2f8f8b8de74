package taskview

import (
	"fmt"
	"strings"
	"time"

	"taskflow/internal/model"
)

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate reads a stored due date. Timestamps with an offset are converted to
// loc; bare dates and local timestamps are taken to be in loc.
func ParseDueDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), true
	}
	for _, layout := range dueDateLayouts[1:] {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dueTime(task model.Task, loc *time.Location) (time.Time, bool) {
	if task.DueDate == nil {
		return time.Time{}, false
	}
	return ParseDueDate(*task.DueDate, loc)
}

// daysBetween counts calendar days from a to b, both read in b's location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// IsOverdue reports whether an unfinished task's due day is strictly before now's day.
// A task due today is never overdue.
func IsOverdue(task model.Task, now time.Time) bool {
	if task.Status == model.StatusCompleted {
		return false
	}
	due, ok := dueTime(task, now.Location())
	if !ok {
		return false
	}
	return daysBetween(due, now) > 0
}

// DueDateLabel renders "Overdue by N day(s)" or "Due Jan 2"; empty without a usable date.
func DueDateLabel(task model.Task, now time.Time) string {
	due, ok := dueTime(task, now.Location())
	if !ok {
		return ""
	}
	if IsOverdue(task, now) {
		days := daysBetween(due, now)
		if days == 1 {
			return "Overdue by 1 day"
		}
		return fmt.Sprintf("Overdue by %d days", days)
	}
	return "Due " + due.Format("Jan 2")
}
