package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/internal/dto"
	"github.com/openedu/registrar-api/internal/models"
	"github.com/openedu/registrar-api/internal/service"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
	"github.com/openedu/registrar-api/pkg/response"
)

// EnrollmentHandler exposes batch enrollment writes and asynchronous
// enrollment/grade exports.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	jobs        *service.JobService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, jobs *service.JobService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, jobs: jobs}
}

// CreateProgramEnrollments godoc
// @Summary Batch-create program enrollments
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param program_key path string true "Program key"
// @Param payload body []dto.EnrollmentRecord true "Enrollment records"
// @Success 200 {object} map[string]string
// @Success 207 {object} map[string]string
// @Router /v1/programs/{program_key}/enrollments [post]
func (h *EnrollmentHandler) CreateProgramEnrollments(c *gin.Context) {
	h.writeProgramEnrollments(c, true)
}

// ModifyProgramEnrollments godoc
// @Summary Batch-modify program enrollments
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param program_key path string true "Program key"
// @Param payload body []dto.EnrollmentRecord true "Enrollment records"
// @Success 200 {object} map[string]string
// @Success 207 {object} map[string]string
// @Router /v1/programs/{program_key}/enrollments [patch]
func (h *EnrollmentHandler) ModifyProgramEnrollments(c *gin.Context) {
	h.writeProgramEnrollments(c, false)
}

// CreateCourseEnrollments handles POST on course enrollment routes.
func (h *EnrollmentHandler) CreateCourseEnrollments(c *gin.Context) {
	h.writeCourseEnrollments(c, true)
}

// ModifyCourseEnrollments handles PATCH on course enrollment routes.
func (h *EnrollmentHandler) ModifyCourseEnrollments(c *gin.Context) {
	h.writeCourseEnrollments(c, false)
}

// ExportProgramEnrollments godoc
// @Summary Submit a program enrollment export job
// @Tags Enrollments
// @Produce json
// @Param program_key path string true "Program key"
// @Param fmt query string false "Result format (json or csv)"
// @Success 202 {object} dto.NewJobResponse
// @Router /v1/programs/{program_key}/enrollments [get]
func (h *EnrollmentHandler) ExportProgramEnrollments(c *gin.Context) {
	h.submitExport(c, models.TaskProgramEnrollments)
}

// ExportCourseEnrollments submits a course enrollment export job.
func (h *EnrollmentHandler) ExportCourseEnrollments(c *gin.Context) {
	h.submitExport(c, models.TaskCourseEnrollments)
}

// ExportCourseGrades submits a course grade export job.
func (h *EnrollmentHandler) ExportCourseGrades(c *gin.Context) {
	h.submitExport(c, models.TaskCourseGrades)
}

func (h *EnrollmentHandler) writeProgramEnrollments(c *gin.Context, create bool) {
	records, ok := bindRecords(c)
	if !ok {
		return
	}
	result, err := h.enrollments.WriteProgramEnrollments(c.Request.Context(), c.Param("program_key"), records, create, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, result.StatusCode(), result)
}

func (h *EnrollmentHandler) writeCourseEnrollments(c *gin.Context, create bool) {
	records, ok := bindRecords(c)
	if !ok {
		return
	}
	result, err := h.enrollments.WriteCourseEnrollments(c.Request.Context(), c.Param("program_key"), c.Param("course_id"), records, create, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, result.StatusCode(), result)
}

func (h *EnrollmentHandler) submitExport(c *gin.Context, taskType models.JobTaskType) {
	resp, err := h.jobs.CreateExportJob(c.Request.Context(), service.CreateJobRequest{
		TaskType:   taskType,
		ProgramKey: c.Param("program_key"),
		CourseID:   c.Param("course_id"),
		Format:     c.Query("fmt"),
		APIPrefix:  apiPrefix(c),
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

func bindRecords(c *gin.Context) ([]dto.EnrollmentRecord, bool) {
	var records []dto.EnrollmentRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return nil, false
	}
	return records, true
}
