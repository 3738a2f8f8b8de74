package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/transfer"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newServices(t *testing.T) (*Services, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	return New(repository.NewMemoryStore(), WithClock(c.Now)), c
}

func strPtr(s string) *string { return &s }

func countOf(t *testing.T, svc *Services, name string) int {
	t.Helper()
	categories, err := svc.Categories.List(context.Background())
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == name {
			return c.Count
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func TestCreateTaskAssignsOrderAndID(t *testing.T) {
	ctx := context.Background()
	svc, c := newServices(t)

	seen := map[int64]bool{}
	for i := 0; i < 4; i++ {
		task, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "task", Category: "Work"})
		require.NoError(t, err)
		assert.Equal(t, i, task.Order)
		assert.False(t, seen[task.ID], "ids are unique")
		seen[task.ID] = true
		assert.Equal(t, c.now, task.CreatedAt)
		assert.Equal(t, model.PriorityMedium, task.Priority)
		assert.Equal(t, model.StatusActive, task.Status)
		assert.Nil(t, task.CompletedAt)
	}

	tasks, err := svc.Tasks.List(ctx)
	require.NoError(t, err)
	first := tasks[0].ID
	require.NoError(t, svc.Tasks.Delete(ctx, first))

	task, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "after delete", Category: "Work"})
	require.NoError(t, err)
	assert.Equal(t, 3, task.Order, "order is the task count at creation")
	assert.False(t, seen[task.ID], "ids are never reused")
}

func TestCreateCompletedTaskStampsCompletedAt(t *testing.T) {
	svc, c := newServices(t)
	task, err := svc.Tasks.Create(context.Background(), model.TaskInput{
		Title: "already done", Category: "Work", Status: model.StatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, c.now, *task.CompletedAt)
}

func TestCreateTaskRejectsUnknownEnums(t *testing.T) {
	svc, _ := newServices(t)
	_, err := svc.Tasks.Create(context.Background(), model.TaskInput{Title: "x", Category: "Work", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Tasks.Create(context.Background(), model.TaskInput{Title: "x", Category: "Work", Status: "paused"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateCompletionTimestamp(t *testing.T) {
	ctx := context.Background()
	svc, c := newServices(t)
	task, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "Pay rent", Category: "Personal"})
	require.NoError(t, err)

	completed := model.StatusCompleted
	c.Advance(time.Hour)
	task, err = svc.Tasks.Update(ctx, task.ID, model.TaskPatch{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	doneAt := *task.CompletedAt
	assert.Equal(t, c.now, doneAt)

	c.Advance(time.Hour)
	task, err = svc.Tasks.Update(ctx, task.ID, model.TaskPatch{Title: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", task.Title)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, doneAt, *task.CompletedAt, "title-only update keeps completedAt")

	active := model.StatusActive
	task, err = svc.Tasks.Update(ctx, task.ID, model.TaskPatch{Status: &active})
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, model.StatusActive, task.Status)
}

func TestUpdateOptionalFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	task, err := svc.Tasks.Create(ctx, model.TaskInput{
		Title: "Dentist", Category: "Health", Description: strPtr("bring card"), DueDate: strPtr("2026-10-30"),
	})
	require.NoError(t, err)

	task, err = svc.Tasks.Update(ctx, task.ID, model.TaskPatch{Description: model.Null()})
	require.NoError(t, err)
	assert.Nil(t, task.Description)
	require.NotNil(t, task.DueDate, "absent fields are untouched")

	task, err = svc.Tasks.Update(ctx, task.ID, model.TaskPatch{DueDate: model.SetString("2026-11-02")})
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", *task.DueDate)

	_, err = svc.Tasks.Update(ctx, task.ID, model.TaskPatch{Title: strPtr("  ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Tasks.Update(ctx, 999, model.TaskPatch{Title: strPtr("ghost")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Tasks.Delete(ctx, 999), ErrNotFound)
}

func TestCategoryCountsFollowTaskMutations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	_, err := svc.Categories.Create(ctx, model.CategoryInput{Name: "Work"})
	require.NoError(t, err)
	_, err = svc.Categories.Create(ctx, model.CategoryInput{Name: "Home"})
	require.NoError(t, err)

	a, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "a", Category: "Work"})
	require.NoError(t, err)
	_, err = svc.Tasks.Create(ctx, model.TaskInput{Title: "b", Category: "Work"})
	require.NoError(t, err)
	_, err = svc.Tasks.Create(ctx, model.TaskInput{Title: "c", Category: "work"})
	require.NoError(t, err)
	assert.Equal(t, 2, countOf(t, svc, "Work"), "matching is case-sensitive")
	assert.Equal(t, 0, countOf(t, svc, "Home"))

	home := "Home"
	_, err = svc.Tasks.Update(ctx, a.ID, model.TaskPatch{Category: &home})
	require.NoError(t, err)
	assert.Equal(t, 1, countOf(t, svc, "Work"))
	assert.Equal(t, 1, countOf(t, svc, "Home"))

	require.NoError(t, svc.Tasks.Delete(ctx, a.ID))
	assert.Equal(t, 0, countOf(t, svc, "Home"))

	completed := model.StatusCompleted
	tasks, err := svc.Tasks.List(ctx)
	require.NoError(t, err)
	for _, task := range tasks {
		_, err := svc.Tasks.Update(ctx, task.ID, model.TaskPatch{Status: &completed})
		require.NoError(t, err)
	}
	removed, err := svc.Tasks.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, countOf(t, svc, "Work"))

	tasks, err = svc.Tasks.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCategoryCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	_, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "orphan", Category: "Garden"})
	require.NoError(t, err)

	work, err := svc.Categories.Create(ctx, model.CategoryInput{Name: " Work "})
	require.NoError(t, err)
	assert.Equal(t, "Work", work.Name)
	assert.Equal(t, model.DefaultCategoryColor, work.Color)
	assert.Zero(t, work.Count)

	_, err = svc.Categories.Create(ctx, model.CategoryInput{Name: "work"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	garden, err := svc.Categories.Create(ctx, model.CategoryInput{Name: "Garden", Color: "#00FF00"})
	require.NoError(t, err)
	assert.Equal(t, 1, garden.Count, "starts at the number of tasks already naming it")

	_, err = svc.Categories.Create(ctx, model.CategoryInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Categories.Create(ctx, model.CategoryInput{Name: strings.Repeat("x", MaxCategoryNameLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategoryDeleteGuard(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := New(store)

	work, err := svc.Categories.Create(ctx, model.CategoryInput{Name: "Work"})
	require.NoError(t, err)
	task, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "report", Category: "Work"})
	require.NoError(t, err)

	err = svc.Categories.Delete(ctx, work.ID)
	require.ErrorIs(t, err, ErrCategoryInUse)
	assert.Contains(t, Describe(err).Description, "1 task(s)")
	_, err = store.GetCategory(ctx, work.ID)
	require.NoError(t, err, "the store delete is never reached")

	require.NoError(t, svc.Tasks.Delete(ctx, task.ID))
	require.NoError(t, svc.Categories.Delete(ctx, work.ID))
	assert.ErrorIs(t, svc.Categories.Delete(ctx, work.ID), ErrNotFound)
}

func TestCategoryRename(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	work, err := svc.Categories.Create(ctx, model.CategoryInput{Name: "Work"})
	require.NoError(t, err)
	_, err = svc.Categories.Create(ctx, model.CategoryInput{Name: "Home"})
	require.NoError(t, err)
	for _, title := range []string{"a", "b"} {
		_, err := svc.Tasks.Create(ctx, model.TaskInput{Title: title, Category: "Work"})
		require.NoError(t, err)
	}

	_, err = svc.Categories.Update(ctx, work.ID, model.CategoryPatch{Name: strPtr("HOME")})
	assert.ErrorIs(t, err, ErrDuplicateName)

	renamed, err := svc.Categories.Update(ctx, work.ID, model.CategoryPatch{Name: strPtr("Office"), Color: strPtr("#333333")})
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Name)
	assert.Equal(t, "#333333", renamed.Color)
	assert.Equal(t, 2, renamed.Count)

	tasks, err := svc.Tasks.List(ctx)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, "Office", task.Category)
	}

	recased, err := svc.Categories.Update(ctx, work.ID, model.CategoryPatch{Name: strPtr("office")})
	require.NoError(t, err, "a category may change the case of its own name")
	assert.Equal(t, 2, recased.Count)

	_, err = svc.Categories.Update(ctx, 999, model.CategoryPatch{Color: strPtr("#000000")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupAndSeedDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	n, err := svc.Categories.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = svc.Categories.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "only an empty store is seeded")

	c, err := svc.Categories.Lookup(ctx, "shopping")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", c.Name)
	assert.Equal(t, "#9C27B0", c.Color)

	_, err = svc.Categories.Lookup(ctx, "Garden")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecomputeAll(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.InsertCategory(ctx, &model.Category{Name: "Work", Count: 7}))
	require.NoError(t, store.InsertCategory(ctx, &model.Category{Name: "Home", Count: 0}))
	require.NoError(t, store.InsertTask(ctx, &model.Task{Title: "a", Category: "Home"}))

	require.NoError(t, NewCountMaintainer(store).RecomputeAll(ctx))
	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, categories[0].Count)
	assert.Equal(t, 1, categories[1].Count)

	require.NoError(t, NewCountMaintainer(store).Recompute(ctx, "Unknown"))
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	_, err := svc.Categories.Create(ctx, model.CategoryInput{Name: "Work"})
	require.NoError(t, err)

	doc := `{
		"tasks": [
			{"title": "Report", "category": "Work", "status": "completed", "priority": "high"},
			{"title": "Plant tomatoes", "category": "Garden"},
			{"title": "Call mom", "category": "Family", "description": null}
		],
		"categories": [{"name": "work", "color": "#000000"}, {"name": "Family", "color": "#E91E63"}, {"name": "FAMILY"}],
		"exportDate": "2026-10-01T00:00:00Z",
		"version": "1.0"
	}`
	result, err := svc.Transfer.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "3 of 3 tasks imported successfully.", result.Summary())
	assert.Equal(t, 1, result.CategoriesImported)
	assert.Equal(t, 2, result.CategoriesSkipped)
	assert.Empty(t, result.Failures)

	tasks, err := svc.Tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, model.StatusActive, task.Status)
		assert.Nil(t, task.CompletedAt)
		require.NotNil(t, task.Description)
	}
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, model.PriorityMedium, tasks[1].Priority)

	assert.Equal(t, 1, countOf(t, svc, "Work"))
	assert.Equal(t, 1, countOf(t, svc, "Family"))

	work, err := svc.Categories.Lookup(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategoryColor, work.Color, "skipped categories are not overwritten")
}

func TestImportPartialFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	doc := `{"tasks": [{"title": "ok", "category": "Work"}, {"category": "Work"}, {"title": "bad", "category": "Work", "priority": "urgent"}, 5],
		"categories": [{"color": "#fff"}]}`
	result, err := svc.Transfer.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "1 of 4 tasks imported successfully.", result.Summary())
	assert.Len(t, result.Failures, 4)
	assert.Equal(t, "category", result.Failures[0].Kind)

	_, err = svc.Transfer.Import(ctx, strings.NewReader(`{"tasks": "nope", "categories": []}`))
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, "Import failed", Describe(err).Message)
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	_, err := svc.Categories.SeedDefaults(ctx)
	require.NoError(t, err)
	_, err = svc.Tasks.Create(ctx, model.TaskInput{Title: "Buy milk", Category: "Shopping", DueDate: strPtr("2026-10-20")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Transfer.Export(ctx, &buf))

	var doc transfer.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, transfer.FormatVersion, doc.Version)
	assert.Len(t, doc.Tasks, 1)
	assert.Len(t, doc.Categories, 4)

	other, _ := newServices(t)
	result, err := other.Transfer.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "1 of 1 tasks imported successfully.", result.Summary())
	assert.Equal(t, 1, countOf(t, other, "Shopping"))

	buf.Reset()
	require.NoError(t, svc.Transfer.ExportXLSX(ctx, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	_, err := svc.Tasks.Create(ctx, model.TaskInput{Title: "backup me", Category: "Work"})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "backups")
	path, err := svc.Transfer.Snapshot(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "taskflow-20261019-090000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backup me")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStatsAndDigest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)
	for _, in := range []model.TaskInput{
		{Title: "Late <report>", Category: "Work", DueDate: strPtr("2026-10-17"), Priority: model.PriorityHigh},
		{Title: "Dentist", Category: "Health", DueDate: strPtr("2026-10-20")},
		{Title: "Someday", Category: "Personal", DueDate: strPtr("2026-12-01")},
		{Title: "Done", Category: "Work", Status: model.StatusCompleted},
	} {
		_, err := svc.Tasks.Create(ctx, in)
		require.NoError(t, err)
	}

	stats, err := svc.Reports.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 25, stats.CompletionRate)

	digest, err := svc.Reports.Digest(ctx)
	require.NoError(t, err)
	assert.Contains(t, digest, "Late &lt;report&gt;")
	assert.Contains(t, digest, "Overdue by 2 days")
	assert.Contains(t, digest, "Dentist")
	assert.NotContains(t, digest, "Someday")
	assert.Less(t, strings.Index(digest, "Late"), strings.Index(digest, "Dentist"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Not found", Describe(ErrNotFound).Message)
	assert.Equal(t, "Category already exists", Describe(ErrDuplicateName).Message)
	assert.Equal(t, "Invalid input", Describe(invalidf("title is required")).Message)
	f := Describe(errors.New("disk full"))
	assert.Equal(t, "Operation failed", f.Message)
	assert.Contains(t, f.Description, "disk full")
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 8 * * *", spec)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerWrapRecoversAndReports(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	ran := false
	s.wrap("ok", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		ran = hasDeadline
		return nil
	})()
	assert.True(t, ran)

	assert.NotPanics(t, s.wrap("boom", func(context.Context) error { panic("boom") }))
	assert.NotPanics(t, s.wrap("fails", func(context.Context) error { return errors.New("nope") }))

	_, err := s.ScheduleInterval("zero", 0, func(context.Context) error { return nil })
	assert.Error(t, err)
	_, err = s.ScheduleDaily("digest", "07:15", func(context.Context) error { return nil })
	assert.NoError(t, err)
}
