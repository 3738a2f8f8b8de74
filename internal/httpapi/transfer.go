package httpapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds uploaded documents.
const maxImportSize = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Reports.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.Transfer.Export(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment("json"))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.Transfer.ExportXLSX(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment("xlsx"))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Import accepts the document either as the raw body or as a multipart "file" field.
func (h *Handler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "missing file: %v", err)
			return
		}
		f, err := header.Open()
		if err != nil {
			badRequest(c, "read file: %v", err)
			return
		}
		defer f.Close()
		body = f
	}

	result, err := h.svc.Transfer.Import(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.Imported.Add(float64(result.TasksImported))
	c.JSON(http.StatusOK, gin.H{"message": result.Summary(), "result": result})
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="taskflow-backup-%s.%s"`, time.Now().UTC().Format("2006-01-02"), ext)
}
