package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"taskflow/internal/logger"
	"taskflow/internal/model"
)

// MaxCategoryNameLength bounds category names.
const MaxCategoryNameLength = 50

// CategoryService manages categories. Names are unique ignoring case.
type CategoryService struct {
	engine *engine
}

func (s *CategoryService) Create(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.create(ctx, in)
}

func (s *CategoryService) create(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	categories, err := s.engine.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if findByName(categories, name, 0) != nil {
		return nil, fmt.Errorf("create category %q: %w", name, ErrDuplicateName)
	}

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	category := model.Category{
		Name:  name,
		Color: colorOrDefault(in.Color),
		Count: countTasks(tasks, name),
	}
	if err := s.engine.store.InsertCategory(ctx, &category); err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	return &category, nil
}

// Update renames and/or recolors a category. A rename is carried over to every
// task that named the old value.
func (s *CategoryService) Update(ctx context.Context, id int64, patch model.CategoryPatch) (*model.Category, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	category, err := s.engine.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	if patch.Color != nil {
		category.Color = colorOrDefault(*patch.Color)
	}

	previous := category.Name
	if patch.Name != nil {
		name, err := normalizeName(*patch.Name)
		if err != nil {
			return nil, err
		}
		categories, err := s.engine.store.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("update category %d: %w", id, err)
		}
		if findByName(categories, name, id) != nil {
			return nil, fmt.Errorf("rename category %q: %w", name, ErrDuplicateName)
		}
		category.Name = name
	}

	if err := s.engine.store.SaveCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	if category.Name == previous {
		return category, nil
	}

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("rename category %d: %w", id, err)
	}
	moved := 0
	for i := range tasks {
		if tasks[i].Category != previous {
			continue
		}
		tasks[i].Category = category.Name
		if err := s.engine.store.SaveTask(ctx, &tasks[i]); err != nil {
			return nil, fmt.Errorf("rename category %d: %w", id, err)
		}
		moved++
	}
	logger.Debug("category renamed", "from", previous, "to", category.Name, "tasks", moved)

	if err := s.engine.counts.Recompute(ctx, category.Name); err != nil {
		return nil, err
	}
	return s.engine.store.GetCategory(ctx, id)
}

// Delete removes a category that no task refers to.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	category, err := s.engine.store.GetCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n := countTasks(tasks, category.Name); n > 0 {
		return fmt.Errorf("%w: %q has %d task(s)", ErrCategoryInUse, category.Name, n)
	}
	if err := s.engine.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	categories, err := s.engine.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*model.Category, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	category, err := s.engine.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return category, nil
}

// Lookup finds a category by name ignoring case.
func (s *CategoryService) Lookup(ctx context.Context, name string) (*model.Category, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if c := findByName(categories, strings.TrimSpace(name), 0); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
}

// SeedDefaults creates the default categories when the store has none.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	categories, err := s.engine.store.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	if len(categories) > 0 {
		return 0, nil
	}
	created := 0
	for _, in := range model.DefaultCategories() {
		if _, err := s.create(ctx, in); err != nil {
			return created, fmt.Errorf("seed categories: %w", err)
		}
		created++
	}
	return created, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalidf("category name is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return "", invalidf("category name is longer than %d characters", MaxCategoryNameLength)
	}
	return name, nil
}

func colorOrDefault(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return model.DefaultCategoryColor
	}
	return color
}

// findByName returns the category whose name equals name ignoring case, skipping
// the one with id skip.
func findByName(categories []model.Category, name string, skip int64) *model.Category {
	for i := range categories {
		if categories[i].ID != skip && strings.EqualFold(categories[i].Name, name) {
			return &categories[i]
		}
	}
	return nil
}

// RecomputeCounts rebuilds every category count from the stored tasks.
func (s *CategoryService) RecomputeCounts(ctx context.Context) error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.engine.counts.RecomputeAll(ctx)
}
