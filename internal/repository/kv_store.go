package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/model"
)

const (
	TasksKey      = "taskflow-tasks"
	CategoriesKey = "taskflow-categories"

	// NextTaskIDKey and NextCategoryIDKey hold the last id handed out, so ids of
	// deleted entries are never reused.
	NextTaskIDKey     = "taskflow-next-task-id"
	NextCategoryIDKey = "taskflow-next-category-id"

	// DefaultKVTTL is how long a stored value stays valid after its last write.
	DefaultKVTTL = 30 * 24 * time.Hour
)

// envelope is the persisted shape of every key: the value plus its write time in epoch ms.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// KVOptions tunes a KVStore. Zero values pick the defaults.
type KVOptions struct {
	TTL time.Duration
	Now func() time.Time
	// DefaultCategories is used when the categories key is missing, expired or unreadable.
	DefaultCategories []model.Category
}

// KVStore keeps the whole task and category collections as two values in a KV,
// the way a browser-local store would. Every write rewrites the full collection.
type KVStore struct {
	kv   KV
	opts KVOptions
}

func NewKVStore(kv KV, opts KVOptions) *KVStore {
	if opts.TTL <= 0 {
		opts.TTL = DefaultKVTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &KVStore{kv: kv, opts: opts}
}

// load decodes key into dst. Missing, expired and corrupt values leave dst untouched
// and report false; expired values are removed.
func (s *KVStore) load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("discard unreadable stored value", "key", key, "error", err)
		return false, nil
	}
	if env.Timestamp > 0 && s.opts.Now().Sub(time.UnixMilli(env.Timestamp)) > s.opts.TTL {
		logger.Info("stored value expired", "key", key, "written", time.UnixMilli(env.Timestamp))
		if err := s.kv.Delete(ctx, key); err != nil {
			return false, err
		}
		return false, nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		logger.Warn("discard unreadable stored value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *KVStore) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	raw, err := json.Marshal(envelope{Data: data, Timestamp: s.opts.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, raw)
}

// nextID returns an id above both the stored high-water mark and every id in use,
// then records it. The mark is read without the TTL check: it must outlive the
// collection it numbers.
func (s *KVStore) nextID(ctx context.Context, key string, maxInUse int64) (int64, error) {
	var last int64
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			_ = json.Unmarshal(env.Data, &last)
		}
	}
	if maxInUse > last {
		last = maxInUse
	}
	next := last + 1
	if err := s.save(ctx, key, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *KVStore) loadTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	ok, err := s.load(ctx, TasksKey, &tasks)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Task{}, nil
	}
	return tasks, nil
}

func (s *KVStore) loadCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	ok, err := s.load(ctx, CategoriesKey, &categories)
	if err != nil {
		return nil, err
	}
	if !ok {
		return append([]model.Category{}, s.opts.DefaultCategories...), nil
	}
	return categories, nil
}

func (s *KVStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	sortTasksByOrder(tasks)
	return tasks, nil
}

func (s *KVStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *KVStore) InsertTask(ctx context.Context, task *model.Task) error {
	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return err
	}
	var maxID int64
	for _, t := range tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	id, err := s.nextID(ctx, NextTaskIDKey, maxID)
	if err != nil {
		return err
	}
	task.ID = id
	return s.save(ctx, TasksKey, append(tasks, *task))
}

func (s *KVStore) SaveTask(ctx context.Context, task *model.Task) error {
	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = *task
			return s.save(ctx, TasksKey, tasks)
		}
	}
	return ErrNotFound
}

func (s *KVStore) DeleteTask(ctx context.Context, id int64) error {
	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return s.save(ctx, TasksKey, append(tasks[:i], tasks[i+1:]...))
		}
	}
	return ErrNotFound
}

func (s *KVStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.loadCategories(ctx)
}

func (s *KVStore) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *KVStore) InsertCategory(ctx context.Context, category *model.Category) error {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return err
	}
	var maxID int64
	for _, c := range categories {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	id, err := s.nextID(ctx, NextCategoryIDKey, maxID)
	if err != nil {
		return err
	}
	category.ID = id
	return s.save(ctx, CategoriesKey, append(categories, *category))
}

func (s *KVStore) SaveCategory(ctx context.Context, category *model.Category) error {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return err
	}
	for i := range categories {
		if categories[i].ID == category.ID {
			categories[i] = *category
			return s.save(ctx, CategoriesKey, categories)
		}
	}
	return ErrNotFound
}

func (s *KVStore) DeleteCategory(ctx context.Context, id int64) error {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return err
	}
	for i := range categories {
		if categories[i].ID == id {
			return s.save(ctx, CategoriesKey, append(categories[:i], categories[i+1:]...))
		}
	}
	return ErrNotFound
}
