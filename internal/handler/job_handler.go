package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openedu/registrar-api/internal/service"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
	"github.com/openedu/registrar-api/pkg/response"
)

// JobHandler exposes export job status reads.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler constructs JobHandler.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Get godoc
// @Summary Export job status
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID (UUID)"
// @Success 200 {object} dto.JobStatusResponse
// @Router /v1/jobs/{job_id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "job not found"))
		return
	}
	status, err := h.jobs.GetStatus(c.Request.Context(), jobID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}
