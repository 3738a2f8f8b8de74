package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow/internal/model"
)

// FormatVersion tags every exported document.
const FormatVersion = "1.0"

// MaxTitleLength bounds task titles accepted from outside input.
const MaxTitleLength = 200

// ErrInvalidFormat means the payload is not an export document.
var ErrInvalidFormat = errors.New("invalid import format")

// Document is the portable export of a whole task collection.
type Document struct {
	Tasks      []model.Task     `json:"tasks"`
	Categories []model.Category `json:"categories"`
	ExportDate time.Time        `json:"exportDate"`
	Version    string           `json:"version"`
}

func NewDocument(tasks []model.Task, categories []model.Category, now time.Time) Document {
	if tasks == nil {
		tasks = []model.Task{}
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return Document{
		Tasks:      tasks,
		Categories: categories,
		ExportDate: now.UTC(),
		Version:    FormatVersion,
	}
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Payload is an import document whose entries are still undecoded.
type Payload struct {
	Tasks      []json.RawMessage
	Categories []json.RawMessage
}

// Decode checks that r holds a JSON object with array-typed tasks and categories.
// Entries are left raw so one bad entry does not reject the whole document.
func Decode(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var p Payload
	if p.Tasks, err = rawArray(fields, "tasks"); err != nil {
		return nil, err
	}
	if p.Categories, err = rawArray(fields, "categories"); err != nil {
		return nil, err
	}
	return &p, nil
}

func rawArray(fields map[string]json.RawMessage, key string) ([]json.RawMessage, error) {
	raw := bytes.TrimSpace(fields[key])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: %q must be an array", ErrInvalidFormat, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, key, err)
	}
	return items, nil
}

type taskEntry struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

// DecodeTask turns one imported entry into a creation input. Imported tasks always
// start active; priority defaults to medium and description to "".
func DecodeTask(raw json.RawMessage) (model.TaskInput, error) {
	var e taskEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.TaskInput{}, fmt.Errorf("decode task: %w", err)
	}

	in := model.TaskInput{
		Priority: model.PriorityMedium,
		Status:   model.StatusActive,
	}
	if e.Title != nil {
		in.Title = *e.Title
	}
	if e.Category != nil {
		in.Category = *e.Category
	}
	description := ""
	if e.Description != nil {
		description = *e.Description
	}
	in.Description = &description
	if e.Priority != nil && *e.Priority != "" {
		in.Priority = model.Priority(*e.Priority)
	}
	if e.DueDate != nil && *e.DueDate != "" {
		due := *e.DueDate
		in.DueDate = &due
	}

	if err := ValidateTask(in); err != nil {
		return model.TaskInput{}, err
	}
	return in, nil
}

type categoryEntry struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func DecodeCategory(raw json.RawMessage) (model.CategoryInput, error) {
	var e categoryEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.CategoryInput{}, fmt.Errorf("decode category: %w", err)
	}
	if e.Name == nil || strings.TrimSpace(*e.Name) == "" {
		return model.CategoryInput{}, errors.New("category name is required")
	}
	in := model.CategoryInput{Name: strings.TrimSpace(*e.Name)}
	if e.Color != nil {
		in.Color = *e.Color
	}
	return in, nil
}

// ValidateTask applies the input-boundary rules shared by every front-end.
func ValidateTask(in model.TaskInput) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return errors.New("title is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return fmt.Errorf("title is longer than %d characters", MaxTitleLength)
	case strings.TrimSpace(in.Category) == "":
		return errors.New("category is required")
	case in.Priority != "" && !in.Priority.Valid():
		return fmt.Errorf("unknown priority %q", in.Priority)
	case in.Status != "" && !in.Status.Valid():
		return fmt.Errorf("unknown status %q", in.Status)
	}
	return nil
}
