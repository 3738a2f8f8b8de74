package transfer

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"taskflow/internal/taskview"
)

const (
	TasksSheet      = "Tasks"
	CategoriesSheet = "Categories"
)

var (
	taskHeader     = []interface{}{"ID", "Title", "Description", "Category", "Priority", "Status", "Due", "Due label", "Created", "Completed", "Order"}
	categoryHeader = []interface{}{"ID", "Name", "Color", "Count"}
)

// WriteXLSX renders doc as a workbook with a Tasks and a Categories sheet.
func WriteXLSX(w io.Writer, doc Document, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", TasksSheet)
	if _, err := f.NewSheet(CategoriesSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1976D2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeRow(f, TasksSheet, 1, taskHeader); err != nil {
		return err
	}
	for i, task := range doc.Tasks {
		row := []interface{}{
			task.ID,
			task.Title,
			task.DescriptionText(),
			task.Category,
			string(task.Priority),
			string(task.Status),
			deref(task.DueDate),
			taskview.DueDateLabel(task, now),
			task.CreatedAt.Format(time.RFC3339),
			formatTime(task.CompletedAt),
			task.Order,
		}
		if err := writeRow(f, TasksSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, CategoriesSheet, 1, categoryHeader); err != nil {
		return err
	}
	for i, category := range doc.Categories {
		row := []interface{}{category.ID, category.Name, category.Color, category.Count}
		if err := writeRow(f, CategoriesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := styleHeader(f, TasksSheet, len(taskHeader), headerStyle); err != nil {
		return err
	}
	if err := styleHeader(f, CategoriesSheet, len(categoryHeader), headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(TasksSheet, "B", "C", 40); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns, style int) error {
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
