package repository

import (
	"context"
	"sort"
	"sync"

	"taskflow/internal/model"
)

// MemoryStore keeps tasks and categories in process memory. Values are copied on
// the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu             sync.RWMutex
	tasks          map[int64]model.Task
	categories     map[int64]model.Category
	nextTaskID     int64
	nextCategoryID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:          make(map[int64]model.Task),
		categories:     make(map[int64]model.Category),
		nextTaskID:     1,
		nextCategoryID: 1,
	}
}

func (s *MemoryStore) ListTasks(_ context.Context) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]model.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, cloneTask(task))
	}
	sortTasksByOrder(tasks)
	return tasks, nil
}

func (s *MemoryStore) GetTask(_ context.Context, id int64) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	task = cloneTask(task)
	return &task, nil
}

func (s *MemoryStore) InsertTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.ID = s.nextTaskID
	s.nextTaskID++
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *MemoryStore) SaveTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make([]model.Category, 0, len(s.categories))
	for _, category := range s.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &category, nil
}

func (s *MemoryStore) InsertCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories[category.ID] = *category
	return nil
}

func (s *MemoryStore) SaveCategory(_ context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return ErrNotFound
	}
	s.categories[category.ID] = *category
	return nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func sortTasksByOrder(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func cloneTask(task model.Task) model.Task {
	if task.Description != nil {
		v := *task.Description
		task.Description = &v
	}
	if task.DueDate != nil {
		v := *task.DueDate
		task.DueDate = &v
	}
	if task.CompletedAt != nil {
		v := *task.CompletedAt
		task.CompletedAt = &v
	}
	return task
}
