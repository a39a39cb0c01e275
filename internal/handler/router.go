package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/openedu/registrar-api/internal/middleware"
	"github.com/openedu/registrar-api/internal/service"
)

// Handlers bundles the route handlers wired by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Programs    *ProgramHandler
	Enrollments *EnrollmentHandler
	Jobs        *JobHandler
	Reports     *ReportHandler
	Exports     *ExportHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes attaches all API routes. The v1 and v2 facades expose the
// same contract, so both groups register the identical route set.
func RegisterRoutes(r *gin.Engine, h Handlers, authService *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	r.GET("/login", h.Auth.Login)
	r.GET("/logout", h.Auth.Logout)

	r.GET("/export/:token", h.Exports.Download)

	for _, prefix := range []string{"/v1", "/v2"} {
		api := r.Group(prefix)
		api.Use(middleware.JWT(authService))
		registerAPIRoutes(api, h)
	}
}

func registerAPIRoutes(api *gin.RouterGroup, h Handlers) {
	api.GET("/programs", h.Programs.List)
	api.GET("/programs/:program_key", h.Programs.Get)
	api.GET("/programs/:program_key/courses", h.Programs.ListCourses)

	api.GET("/programs/:program_key/enrollments", h.Enrollments.ExportProgramEnrollments)
	api.POST("/programs/:program_key/enrollments", h.Enrollments.CreateProgramEnrollments)
	api.PATCH("/programs/:program_key/enrollments", h.Enrollments.ModifyProgramEnrollments)

	api.GET("/programs/:program_key/courses/:course_id/enrollments", h.Enrollments.ExportCourseEnrollments)
	api.POST("/programs/:program_key/courses/:course_id/enrollments", h.Enrollments.CreateCourseEnrollments)
	api.PATCH("/programs/:program_key/courses/:course_id/enrollments", h.Enrollments.ModifyCourseEnrollments)

	api.GET("/programs/:program_key/courses/:course_id/grades", h.Enrollments.ExportCourseGrades)

	api.GET("/programs/:program_key/reports", h.Reports.List)

	api.GET("/jobs/:job_id", h.Jobs.Get)
}
