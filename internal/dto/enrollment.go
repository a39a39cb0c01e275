package dto

import (
	"net/http"

	"github.com/openedu/registrar-api/internal/models"
)

// EnrollmentRecord is one element of a batch enrollment write.
type EnrollmentRecord struct {
	StudentKey string `json:"student_key" validate:"required"`
	Status     string `json:"status" validate:"required"`
}

// BatchResult maps each submitted student_key to its per-record outcome.
// It is serialized as-is: the response body is the flat mapping.
type BatchResult map[string]models.WriteStatus

// StatusCode derives the HTTP status for a fully evaluated batch: 200 when
// every record landed, 207 on mixed outcomes, 422 when every record failed.
func (r BatchResult) StatusCode() int {
	succeeded, failed := 0, 0
	for _, status := range r {
		if status.IsError() {
			failed++
		} else {
			succeeded++
		}
	}
	switch {
	case failed == 0:
		return http.StatusOK
	case succeeded == 0:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusMultiStatus
	}
}
