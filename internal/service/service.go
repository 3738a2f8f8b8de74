package service

import (
	"sync"
	"time"

	"taskflow/internal/repository"
)

// engine is the state shared by every service built on one store. All mutations
// and the count recomputation they trigger run under mu.
type engine struct {
	store  repository.Store
	counts *CountMaintainer
	mu     sync.Mutex
	now    func() time.Time
}

// Services bundles the services that operate on one store.
type Services struct {
	Tasks      *TaskService
	Categories *CategoryService
	Transfer   *TransferService
	Reports    *ReportService
}

// Option customizes New.
type Option func(*engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *engine) { e.now = now }
}

// New wires the services around store.
func New(store repository.Store, opts ...Option) *Services {
	e := &engine{
		store:  store,
		counts: NewCountMaintainer(store),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	tasks := &TaskService{engine: e}
	categories := &CategoryService{engine: e}
	return &Services{
		Tasks:      tasks,
		Categories: categories,
		Transfer:   &TransferService{engine: e, tasks: tasks, categories: categories},
		Reports:    &ReportService{engine: e},
	}
}
