package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/internal/models"
	"github.com/openedu/registrar-api/internal/service"
	"github.com/openedu/registrar-api/pkg/response"
)

// ProgramHandler exposes the read-only program catalog endpoints.
type ProgramHandler struct {
	programs *service.ProgramService
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(programs *service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programs: programs}
}

// List godoc
// @Summary List programs
// @Tags Programs
// @Produce json
// @Param org query string false "Filter by organization key"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {array} models.Program
// @Router /v1/programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	var filter models.ProgramFilter
	filter.Org = c.Query("org")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	programs, pagination, err := h.programs.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(pagination.TotalCount))
	response.JSON(c, http.StatusOK, programs)
}

// Get godoc
// @Summary Program detail
// @Tags Programs
// @Produce json
// @Param program_key path string true "Program key"
// @Success 200 {object} models.Program
// @Router /v1/programs/{program_key} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programs.Get(c.Request.Context(), c.Param("program_key"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program)
}

// ListCourses godoc
// @Summary List courses of a program
// @Tags Programs
// @Produce json
// @Param program_key path string true "Program key"
// @Success 200 {array} models.Course
// @Router /v1/programs/{program_key}/courses [get]
func (h *ProgramHandler) ListCourses(c *gin.Context) {
	courses, err := h.programs.ListCourses(c.Request.Context(), c.Param("program_key"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}
