package httpapi

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"taskflow/internal/model"
	"taskflow/internal/service"
	"taskflow/internal/taskview"
	"taskflow/internal/transfer"
)

// ListTasks returns the tasks matching the status, category and search query
// parameters, optionally sorted by sort.
func (h *Handler) ListTasks(c *gin.Context) {
	var criteria taskview.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		badRequest(c, "bad query: %v", err)
		return
	}
	var key taskview.SortKey
	if raw := c.Query("sort"); raw != "" {
		var ok bool
		if key, ok = taskview.ParseSortKey(raw); !ok {
			badRequest(c, "unknown sort %q", raw)
			return
		}
	}

	tasks, err := h.svc.Tasks.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	tasks = taskview.Filter(tasks, criteria)
	if key != "" {
		tasks = taskview.Sort(tasks, key)
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	task, err := h.svc.Tasks.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "bad request body: %v", err)
		return
	}
	if err := service.ValidateTaskInput(in); err != nil {
		respondError(c, err)
		return
	}
	task, err := h.svc.Tasks.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "bad request body: %v", err)
		return
	}
	if patch.Title != nil && utf8.RuneCountInString(strings.TrimSpace(*patch.Title)) > transfer.MaxTitleLength {
		badRequest(c, "title is longer than %d characters", transfer.MaxTitleLength)
		return
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		badRequest(c, "category is required")
		return
	}

	task, err := h.svc.Tasks.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.Tasks.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearCompleted(c *gin.Context) {
	removed, err := h.svc.Tasks.ClearCompleted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
