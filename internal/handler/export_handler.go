package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/internal/service"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
	"github.com/openedu/registrar-api/pkg/response"
)

// ExportHandler serves signed download links for job results and program
// reports.
type ExportHandler struct {
	exports *service.ExportService
	jobs    *service.JobService
	reports *service.ReportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService, jobs *service.JobService, reports *service.ReportService) *ExportHandler {
	return &ExportHandler{exports: exports, jobs: jobs, reports: reports}
}

// Download godoc
// @Summary Download an export or report file
// @Tags Exports
// @Param token path string true "Signed download token"
// @Success 200
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	subject, _, _, err := h.exports.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token"))
		return
	}

	var (
		file *os.File
		name string
	)
	if strings.HasPrefix(subject, "report:") {
		file, name, err = h.reports.OpenReport(token)
	} else {
		f, j, resolveErr := h.jobs.ResolveDownload(c.Request.Context(), token)
		if resolveErr == nil {
			file = f
			name = fmt.Sprintf("%s_%s.%s", j.TaskType, j.ID, j.Format)
		}
		err = resolveErr
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	h.serveFile(c, file, name)
}

func (h *ExportHandler) serveFile(c *gin.Context, file *os.File, name string) {
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(name) {
	case ".csv":
		contentType = "text/csv"
	case ".json":
		contentType = "application/json"
	case ".pdf":
		contentType = "application/pdf"
	}

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename=%q`, name),
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, extraHeaders)
}
