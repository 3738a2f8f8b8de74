package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"taskflow/internal/logger"
	"taskflow/internal/transfer"
)

// TransferService moves whole collections in and out of the store.
type TransferService struct {
	engine     *engine
	tasks      *TaskService
	categories *CategoryService
}

// ImportFailure records one entry that could not be imported.
type ImportFailure struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportResult describes what an import did.
type ImportResult struct {
	TasksTotal         int             `json:"tasksTotal"`
	TasksImported      int             `json:"tasksImported"`
	CategoriesImported int             `json:"categoriesImported"`
	CategoriesSkipped  int             `json:"categoriesSkipped"`
	Failures           []ImportFailure `json:"failures"`
}

func (r *ImportResult) Summary() string {
	return fmt.Sprintf("%d of %d tasks imported successfully.", r.TasksImported, r.TasksTotal)
}

func (s *TransferService) document(ctx context.Context) (transfer.Document, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	tasks, err := s.engine.store.ListTasks(ctx)
	if err != nil {
		return transfer.Document{}, fmt.Errorf("export: %w", err)
	}
	categories, err := s.engine.store.ListCategories(ctx)
	if err != nil {
		return transfer.Document{}, fmt.Errorf("export: %w", err)
	}
	return transfer.NewDocument(tasks, categories, s.engine.now()), nil
}

// Export writes every task and category as a JSON document.
func (s *TransferService) Export(ctx context.Context, w io.Writer) error {
	doc, err := s.document(ctx)
	if err != nil {
		return err
	}
	return transfer.Encode(w, doc)
}

// ExportXLSX writes the same data as a spreadsheet.
func (s *TransferService) ExportXLSX(ctx context.Context, w io.Writer) error {
	doc, err := s.document(ctx)
	if err != nil {
		return err
	}
	return transfer.WriteXLSX(w, doc, s.engine.now())
}

// Snapshot writes a timestamped JSON export into dir and returns its path.
func (s *TransferService) Snapshot(ctx context.Context, dir string) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}

	path := filepath.Join(dir, "taskflow-"+doc.ExportDate.Format("20060102-150405")+".json")
	tmp, err := os.CreateTemp(dir, ".taskflow-*.tmp")
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := transfer.Encode(tmp, doc); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return path, nil
}

// Import adds the categories and tasks of an exported document. Categories whose
// names already exist (ignoring case) are skipped. Every task is created active.
// Bad entries are recorded and skipped; nothing is rolled back.
func (s *TransferService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	payload, err := transfer.Decode(r)
	if err != nil {
		return nil, err
	}

	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()

	existing, err := s.engine.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[strings.ToLower(c.Name)] = struct{}{}
	}

	result := &ImportResult{TasksTotal: len(payload.Tasks), Failures: []ImportFailure{}}
	for i, raw := range payload.Categories {
		in, err := transfer.DecodeCategory(raw)
		if err != nil {
			result.Failures = append(result.Failures, ImportFailure{Kind: "category", Index: i, Reason: err.Error()})
			continue
		}
		key := strings.ToLower(in.Name)
		if _, ok := seen[key]; ok {
			result.CategoriesSkipped++
			continue
		}
		if _, err := s.categories.create(ctx, in); err != nil {
			result.Failures = append(result.Failures, ImportFailure{Kind: "category", Index: i, Reason: err.Error()})
			continue
		}
		seen[key] = struct{}{}
		result.CategoriesImported++
	}

	for i, raw := range payload.Tasks {
		in, err := transfer.DecodeTask(raw)
		if err == nil {
			_, err = s.tasks.create(ctx, in)
		}
		if err != nil {
			result.Failures = append(result.Failures, ImportFailure{Kind: "task", Index: i, Reason: err.Error()})
			continue
		}
		result.TasksImported++
	}

	logger.Info("import finished",
		"imported", result.TasksImported, "total", result.TasksTotal,
		"categories", result.CategoriesImported, "skipped", result.CategoriesSkipped,
		"failures", len(result.Failures))
	return result, nil
}
