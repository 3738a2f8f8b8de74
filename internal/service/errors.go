package service

import (
	"errors"
	"fmt"

	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/transfer"
)

var (
	ErrNotFound      = repository.ErrNotFound
	ErrInvalidFormat = transfer.ErrInvalidFormat
	ErrDuplicateName = errors.New("category already exists")
	ErrCategoryInUse = errors.New("category is in use")
	ErrInvalidInput  = errors.New("invalid input")
)

// Failure is the user-facing form of an error.
type Failure struct {
	Message     string `json:"error"`
	Description string `json:"description"`
}

// Describe maps err to a short message and a longer description.
func Describe(err error) Failure {
	switch {
	case errors.Is(err, ErrNotFound):
		return Failure{Message: "Not found", Description: "The item no longer exists. It may have been deleted."}
	case errors.Is(err, ErrDuplicateName):
		return Failure{Message: "Category already exists", Description: "A category with this name already exists."}
	case errors.Is(err, ErrCategoryInUse):
		return Failure{Message: "Cannot delete category", Description: err.Error() + ". Please reassign or delete these tasks first."}
	case errors.Is(err, ErrInvalidFormat):
		return Failure{Message: "Import failed", Description: "Invalid file format. Please select a valid JSON export file."}
	case errors.Is(err, ErrInvalidInput):
		return Failure{Message: "Invalid input", Description: err.Error()}
	default:
		return Failure{Message: "Operation failed", Description: fmt.Sprintf("Something went wrong: %v", err)}
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ValidateTaskInput checks a new task the way every front-end must before Create.
func ValidateTaskInput(in model.TaskInput) error {
	if err := transfer.ValidateTask(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
