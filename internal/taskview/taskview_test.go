package taskview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/model"
)

func ptr(s string) *string { return &s }

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestIsOverdue(t *testing.T) {
	morning := time.Date(2026, 10, 19, 0, 1, 0, 0, time.UTC)
	night := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)

	today := model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-19")}
	assert.False(t, IsOverdue(today, morning))
	assert.False(t, IsOverdue(today, night))

	earlierToday := model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-19T08:00:00Z")}
	assert.False(t, IsOverdue(earlierToday, night), "same-day due dates are never overdue")

	yesterday := model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-18")}
	assert.True(t, IsOverdue(yesterday, morning))

	yesterday.Status = model.StatusCompleted
	assert.False(t, IsOverdue(yesterday, morning))

	longAgoDone := model.Task{Status: model.StatusCompleted, DueDate: ptr("2020-01-01")}
	assert.False(t, IsOverdue(longAgoDone, morning))

	assert.False(t, IsOverdue(model.Task{Status: model.StatusActive}, morning))
	assert.False(t, IsOverdue(model.Task{Status: model.StatusActive, DueDate: ptr("someday")}, morning))
}

func TestIsOverdueUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2026-10-19 02:00 local is still 2026-10-18 in UTC.
	now := time.Date(2026, 10, 19, 2, 0, 0, 0, loc)
	task := model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-18T20:00:00Z")}
	// The due instant is 2026-10-19 06:00 local: same calendar day.
	assert.False(t, IsOverdue(task, now))
}

func TestDueDateLabel(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		task model.Task
		want string
	}{
		{"no due date", model.Task{Status: model.StatusActive}, ""},
		{"unparseable", model.Task{Status: model.StatusActive, DueDate: ptr("next week")}, ""},
		{"one day", model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-18")}, "Overdue by 1 day"},
		{"several days", model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-16T23:00:00Z")}, "Overdue by 3 days"},
		{"today", model.Task{Status: model.StatusActive, DueDate: ptr("2026-10-19")}, "Due Oct 19"},
		{"future", model.Task{Status: model.StatusActive, DueDate: ptr("2026-11-02")}, "Due Nov 2"},
		{"completed past", model.Task{Status: model.StatusCompleted, DueDate: ptr("2026-10-01")}, "Due Oct 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DueDateLabel(tc.task, now))
		})
	}
}

func TestCompute(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, Stats{}, Compute(nil, now))

	tasks := []model.Task{
		{Status: model.StatusCompleted},
		{Status: model.StatusActive, DueDate: ptr("2026-10-01")},
		{Status: model.StatusActive},
	}
	assert.Equal(t, Stats{Total: 3, Completed: 1, Active: 2, Overdue: 1, CompletionRate: 33}, Compute(tasks, now))

	tasks[2].Status = model.StatusCompleted
	assert.Equal(t, 67, Compute(tasks, now).CompletionRate)
}

func TestFilter(t *testing.T) {
	tasks := []model.Task{
		{Title: "Buy milk", Category: "Shopping", Status: model.StatusActive},
		{Title: "Groceries", Description: ptr("need MILK and eggs"), Category: "Shopping", Status: model.StatusCompleted},
		{Title: "Buy bread", Category: "Shopping", Status: model.StatusActive},
		{Title: "Call plumber", Category: "Home", Status: model.StatusActive},
	}

	assert.Equal(t, []string{"Buy milk", "Groceries"}, titles(Filter(tasks, Criteria{Search: "milk"})))
	assert.Equal(t, []string{"Groceries"}, titles(Filter(tasks, Criteria{Status: "completed"})))
	assert.Len(t, Filter(tasks, Criteria{Status: StatusAll}), 4)
	assert.Len(t, Filter(tasks, Criteria{}), 4)
	assert.Equal(t, []string{"Call plumber"}, titles(Filter(tasks, Criteria{Category: "Home"})))
	assert.Empty(t, Filter(tasks, Criteria{Category: "home"}), "category match is exact")
	assert.Equal(t, []string{"Buy milk"}, titles(Filter(tasks, Criteria{Search: "milk", Status: "active"})))
	assert.Empty(t, Filter(tasks, Criteria{Search: "milk", Category: "Home"}))
}

func TestSortPriority(t *testing.T) {
	tasks := []model.Task{
		{Title: "low", Priority: model.PriorityLow},
		{Title: "odd", Priority: model.Priority("urgent")},
		{Title: "high", Priority: model.PriorityHigh},
		{Title: "medium", Priority: model.PriorityMedium},
	}
	assert.Equal(t, []string{"high", "medium", "low", "odd"}, titles(Sort(tasks, SortPriority)))
	assert.Equal(t, "low", tasks[0].Title, "input is not modified")
}

func TestSortDue(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Title: "none-a"},
		{ID: 2, Title: "late", DueDate: ptr("2026-12-01")},
		{ID: 3, Title: "bad", DueDate: ptr("soon")},
		{ID: 4, Title: "early", DueDate: ptr("2026-10-20T10:00:00Z")},
		{ID: 5, Title: "none-b"},
	}
	assert.Equal(t, []string{"early", "late", "none-a", "bad", "none-b"}, titles(Sort(tasks, SortDue)))
}

func TestSortCreatedAndAlphabetical(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{Title: "banana", CreatedAt: base},
		{Title: "Cherry", CreatedAt: base.Add(2 * time.Hour)},
		{Title: "apple", CreatedAt: base.Add(time.Hour)},
	}
	assert.Equal(t, []string{"Cherry", "apple", "banana"}, titles(Sort(tasks, SortCreated)))
	assert.Equal(t, []string{"Cherry", "apple", "banana"}, titles(Sort(tasks, SortAlphabetical)),
		"uppercase sorts before lowercase")
	assert.Equal(t, []string{"banana", "Cherry", "apple"}, titles(Sort(tasks, SortKey("unknown"))))
}

func TestParseSortKey(t *testing.T) {
	key, ok := ParseSortKey(" Priority ")
	require.True(t, ok)
	assert.Equal(t, SortPriority, key)

	_, ok = ParseSortKey("size")
	assert.False(t, ok)
}
