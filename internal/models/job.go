package models

import "time"

// JobState captures the lifecycle of an asynchronous export job. The state
// names are part of the public contract.
type JobState string

const (
	JobStateQueued     JobState = "Queued"
	JobStateInProgress JobState = "In Progress"
	JobStateCanceled   JobState = "Canceled"
	JobStateFailed     JobState = "Failed"
	JobStateSucceeded  JobState = "Succeeded"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCanceled, JobStateFailed, JobStateSucceeded:
		return true
	default:
		return false
	}
}

// JobTaskType enumerates the export task categories.
type JobTaskType string

const (
	TaskProgramEnrollments JobTaskType = "program_enrollments"
	TaskCourseEnrollments  JobTaskType = "course_enrollments"
	TaskCourseGrades       JobTaskType = "course_grades"
)

// ExportFormat enumerates result file formats, selected at submission time.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
)

// ValidExportFormat reports whether raw names a supported format.
func ValidExportFormat(raw string) bool {
	return ExportFormat(raw) == ExportFormatJSON || ExportFormat(raw) == ExportFormatCSV
}

// Job is a persisted handle to an asynchronous data-export task. ResultURL is
// populated only once the job reaches Succeeded.
type Job struct {
	ID           string       `db:"id" json:"job_id"`
	TaskType     JobTaskType  `db:"task_type" json:"task_type"`
	ProgramKey   string       `db:"program_key" json:"program_key"`
	CourseKey    *string      `db:"course_key" json:"course_id,omitempty"`
	Format       ExportFormat `db:"format" json:"fmt"`
	State        JobState     `db:"state" json:"state"`
	ResultURL    *string      `db:"result_url" json:"result,omitempty"`
	CreatedBy    string       `db:"created_by" json:"-"`
	CreatedAt    time.Time    `db:"created_at" json:"created"`
	FinishedAt   *time.Time   `db:"finished_at" json:"-"`
	ErrorMessage *string      `db:"error_message" json:"-"`
}
