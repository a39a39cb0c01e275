package dto

import (
	"time"

	"github.com/openedu/registrar-api/internal/models"
)

// NewJobResponse is returned with 202 when an export job is accepted.
type NewJobResponse struct {
	JobID  string `json:"job_id"`
	JobURL string `json:"job_url"`
}

// JobStatusResponse exposes job lifecycle state to polling clients. Result
// is null until the job reaches Succeeded.
type JobStatusResponse struct {
	Created time.Time       `json:"created"`
	State   models.JobState `json:"state"`
	Result  *string         `json:"result"`
}
