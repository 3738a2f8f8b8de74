package service

import (
	"context"
	"fmt"
	"strings"

	"taskflow/internal/model"
)

// TaskService creates, edits and removes tasks and keeps category counts in step.
type TaskService struct {
	engine *engine
}

func (s *TaskService) Create(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	return s.create(ctx, in)
}

func (s *TaskService) create(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Status == "" {
		in.Status = model.StatusActive
	}
	if !in.Priority.Valid() {
		return nil, invalidf("unknown priority %q", in.Priority)
	}
	if !in.Status.Valid() {
		return nil, invalidf("unknown status %q", in.Status)
	}

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	now := s.engine.now()
	task := model.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      in.Status,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		Order:       len(tasks),
	}
	if task.Status == model.StatusCompleted {
		task.CompletedAt = &now
	}

	if err := s.engine.store.InsertTask(ctx, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if err := s.engine.counts.Recompute(ctx, task.Category); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update merges the fields present in patch. Setting status to completed stamps
// CompletedAt; setting it to active clears it.
func (s *TaskService) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	task, err := s.engine.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	previous := task.Category

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalidf("title is required")
		}
		task.Title = title
	}
	if patch.Description.Set {
		task.Description = patch.Description.Value
	}
	if patch.Category != nil {
		task.Category = *patch.Category
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, invalidf("unknown priority %q", *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Value
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.StatusCompleted:
			now := s.engine.now()
			task.CompletedAt = &now
		case model.StatusActive:
			task.CompletedAt = nil
		default:
			return nil, invalidf("unknown status %q", *patch.Status)
		}
		task.Status = *patch.Status
	}

	if err := s.engine.store.SaveTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	if task.Category != previous {
		if err := s.engine.counts.Recompute(ctx, previous); err != nil {
			return nil, err
		}
		if err := s.engine.counts.Recompute(ctx, task.Category); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	task, err := s.engine.store.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if err := s.engine.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return s.engine.counts.Recompute(ctx, task.Category)
}

// List returns every task by ascending order.
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	task, err := s.engine.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// ClearCompleted deletes every completed task and returns how many were removed.
func (s *TaskService) ClearCompleted(ctx context.Context) (int, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}

	touched := make(map[string]struct{})
	removed := 0
	for _, task := range tasks {
		if !task.IsCompleted() {
			continue
		}
		if err := s.engine.store.DeleteTask(ctx, task.ID); err != nil {
			return removed, fmt.Errorf("clear completed: %w", err)
		}
		touched[task.Category] = struct{}{}
		removed++
	}
	for name := range touched {
		if err := s.engine.counts.Recompute(ctx, name); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
