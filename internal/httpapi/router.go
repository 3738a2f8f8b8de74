package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskflow/internal/logger"
	"taskflow/internal/service"
)

// Handler serves the JSON API over one set of services.
type Handler struct {
	svc     *service.Services
	metrics *Metrics
	started time.Time
	version string
}

// Options tunes NewRouter. A nil Registry gets a fresh one.
type Options struct {
	Registry *prometheus.Registry
	Version  string
}

// NewRouter builds the gin engine with /healthz, /metrics and the /api group.
func NewRouter(svc *service.Services, opts Options) *gin.Engine {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	h := &Handler{
		svc:     svc,
		metrics: NewMetrics(reg),
		started: time.Now(),
		version: opts.Version,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), h.metrics.Middleware())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks", h.CreateTask)
		api.POST("/tasks/clear-completed", h.ClearCompleted)
		api.GET("/tasks/:id", h.GetTask)
		api.PATCH("/tasks/:id", h.UpdateTask)
		api.DELETE("/tasks/:id", h.DeleteTask)

		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
		api.PATCH("/categories/:id", h.UpdateCategory)
		api.DELETE("/categories/:id", h.DeleteCategory)

		api.GET("/stats", h.Stats)
		api.GET("/export", h.Export)
		api.GET("/export.xlsx", h.ExportXLSX)
		api.POST("/import", h.Import)
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Get().Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

// respondError writes err as {"error", "description"} with a matching status code.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateName), errors.Is(err, service.ErrCategoryInUse):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidFormat):
		status = http.StatusBadRequest
	default:
		logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, service.Describe(err))
}

func badRequest(c *gin.Context, format string, args ...any) {
	respondError(c, invalidInput(format, args...))
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id %q", c.Param("id"))
		return 0, false
	}
	return id, true
}
