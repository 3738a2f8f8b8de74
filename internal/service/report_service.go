package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/taskview"
)

// ReportService builds statistics and the daily digest.
type ReportService struct {
	engine *engine
}

func (s *ReportService) Stats(ctx context.Context) (taskview.Stats, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return taskview.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return taskview.Compute(tasks, s.engine.now()), nil
}

// Digest renders an HTML summary of the open tasks: overdue first, then tasks due
// within two days, ordered by due date.
func (s *ReportService) Digest(ctx context.Context) (string, error) {
	s.engine.mu.Lock()
	tasks, err := s.engine.store.ListTasks(ctx)
	now := s.engine.now()
	s.engine.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}

	stats := taskview.Compute(tasks, now)
	var overdue, soon []model.Task
	for _, task := range taskview.Sort(tasks, taskview.SortDue) {
		if task.IsCompleted() {
			continue
		}
		if taskview.IsOverdue(task, now) {
			overdue = append(overdue, task)
			continue
		}
		if dueWithin(task, now, 2) {
			soon = append(soon, task)
		}
	}

	var b strings.Builder
	b.WriteString("📋 <b>Daily digest</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, Jan 2 2006")))
	b.WriteString(fmt.Sprintf("Active: <b>%d</b> · Completed: <b>%d</b> · Overdue: <b>%d</b> · Done: <b>%d%%</b>\n",
		stats.Active, stats.Completed, stats.Overdue, stats.CompletionRate))

	b.WriteString("\n⚠️ <b>Overdue</b>\n")
	if len(overdue) == 0 {
		b.WriteString("— nothing overdue\n")
	}
	for _, task := range overdue {
		b.WriteString(FormatTaskLine(task, now))
	}

	b.WriteString("\n⏳ <b>Due soon</b>\n")
	if len(soon) == 0 {
		b.WriteString("— nothing due in the next two days\n")
	}
	for _, task := range soon {
		b.WriteString(FormatTaskLine(task, now))
	}

	return strings.TrimSpace(b.String()), nil
}

// FormatTaskLine renders one task as an HTML line for chat messages.
func FormatTaskLine(task model.Task, now time.Time) string {
	var b strings.Builder

	icon := "🟢"
	switch {
	case task.IsCompleted():
		icon = "✅"
	case task.Priority == model.PriorityHigh:
		icon = "🔴"
	case task.Priority == model.PriorityLow:
		icon = "⚪️"
	}
	b.WriteString(fmt.Sprintf("%s <code>#%d</code> %s", icon, task.ID, html.EscapeString(task.Title)))
	if task.Category != "" {
		b.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(task.Category)))
	}
	if label := taskview.DueDateLabel(task, now); label != "" {
		if taskview.IsOverdue(task, now) {
			b.WriteString(fmt.Sprintf("\n   ⏰ <b>%s</b>", label))
		} else {
			b.WriteString(fmt.Sprintf("\n   ⏰ %s", label))
		}
	}
	if desc := strings.TrimSpace(task.DescriptionText()); desc != "" {
		b.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}
	b.WriteByte('\n')
	return b.String()
}

func dueWithin(task model.Task, now time.Time, days int) bool {
	if task.DueDate == nil {
		return false
	}
	due, ok := taskview.ParseDueDate(*task.DueDate, now.Location())
	if !ok {
		return false
	}
	y, m, d := now.Date()
	limit := time.Date(y, m, d+days+1, 0, 0, 0, 0, now.Location())
	return due.Before(limit)
}
