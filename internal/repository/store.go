package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"
)

// ErrNotFound is returned when a task or category id does not exist.
var ErrNotFound = errors.New("record not found")

// TaskStore persists tasks. ListTasks returns tasks ordered by Order, then ID.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	// InsertTask assigns task.ID.
	InsertTask(ctx context.Context, task *model.Task) error
	SaveTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// CategoryStore persists categories. Deletion is unconditional: callers decide
// whether a category may be removed.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	// InsertCategory assigns category.ID.
	InsertCategory(ctx context.Context, category *model.Category) error
	SaveCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// Store is the storage backend the engine runs on.
type Store interface {
	TaskStore
	CategoryStore
}
