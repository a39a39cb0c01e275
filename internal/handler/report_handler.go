package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/internal/service"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
	"github.com/openedu/registrar-api/pkg/response"
)

// ReportHandler exposes program report listings.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// List godoc
// @Summary List program reports
// @Tags Reports
// @Produce json
// @Param program_key path string true "Program key"
// @Param min_created_date query string false "Earliest creation date (YYYY-MM-DD)"
// @Success 200 {array} models.ProgramReport
// @Router /v1/programs/{program_key}/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	var minCreated *time.Time
	if raw := c.Query("min_created_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "min_created_date must be YYYY-MM-DD"))
			return
		}
		minCreated = &parsed
	}

	reports, err := h.reports.ListReports(c.Request.Context(), c.Param("program_key"), minCreated, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports)
}
