package model

import (
	"encoding/json"
	"time"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Task represents a single item in the planner.
type Task struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description"`
	Category    string     `gorm:"index;not null" json:"category"`
	Priority    Priority   `gorm:"not null;default:medium" json:"priority"`
	Status      Status     `gorm:"index;not null;default:active" json:"status"`
	DueDate     *string    `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
	Order       int        `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// TaskInput carries the fields a caller may set when creating a task.
type TaskInput struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	DueDate     *string  `json:"dueDate"`
}

// TaskPatch is a partial update. Nil fields are left untouched; Description and
// DueDate distinguish "absent" from an explicit null that clears the value.
type TaskPatch struct {
	Title       *string        `json:"title"`
	Description OptionalString `json:"description"`
	Category    *string        `json:"category"`
	Priority    *Priority      `json:"priority"`
	Status      *Status        `json:"status"`
	DueDate     OptionalString `json:"dueDate"`
}

// OptionalString tracks whether a nullable JSON string field was present.
type OptionalString struct {
	Set   bool
	Value *string
}

// SetString returns a present, non-null OptionalString.
func SetString(v string) OptionalString {
	return OptionalString{Set: true, Value: &v}
}

// Null returns a present OptionalString that clears the field.
func Null() OptionalString {
	return OptionalString{Set: true}
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsCompleted is a shorthand used by front-ends.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DescriptionText returns the description or an empty string.
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}
