package service

import (
	"context"
	"fmt"

	"taskflow/internal/model"
	"taskflow/internal/repository"
)

// CountMaintainer keeps Category.Count equal to the number of tasks naming the
// category. Callers hold the engine lock.
type CountMaintainer struct {
	store repository.Store
}

func NewCountMaintainer(store repository.Store) *CountMaintainer {
	return &CountMaintainer{store: store}
}

// Recompute scans every task and overwrites the count of the category called name.
// Unknown names are ignored.
func (m *CountMaintainer) Recompute(ctx context.Context, name string) error {
	tasks, err := m.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("recompute %q: %w", name, err)
	}
	categories, err := m.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("recompute %q: %w", name, err)
	}
	for i := range categories {
		if categories[i].Name != name {
			continue
		}
		return m.apply(ctx, &categories[i], countTasks(tasks, name))
	}
	return nil
}

// RecomputeAll fixes the count of every category with one task scan.
func (m *CountMaintainer) RecomputeAll(ctx context.Context) error {
	tasks, err := m.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("recompute counts: %w", err)
	}
	categories, err := m.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("recompute counts: %w", err)
	}
	counts := make(map[string]int, len(categories))
	for _, task := range tasks {
		counts[task.Category]++
	}
	for i := range categories {
		if err := m.apply(ctx, &categories[i], counts[categories[i].Name]); err != nil {
			return err
		}
	}
	return nil
}

func (m *CountMaintainer) apply(ctx context.Context, category *model.Category, count int) error {
	if category.Count == count {
		return nil
	}
	category.Count = count
	if err := m.store.SaveCategory(ctx, category); err != nil {
		return fmt.Errorf("save count of %q: %w", category.Name, err)
	}
	return nil
}

func countTasks(tasks []model.Task, name string) int {
	n := 0
	for _, task := range tasks {
		if task.Category == name {
			n++
		}
	}
	return n
}
