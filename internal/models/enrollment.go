package models

import "time"

// MaxEnrollmentBatch caps the number of records accepted per batch write.
// Requests above the cap are rejected before any per-record evaluation.
const MaxEnrollmentBatch = 25

// ProgramEnrollmentStatus enumerates writable program enrollment states.
type ProgramEnrollmentStatus string

const (
	ProgramStatusEnrolled  ProgramEnrollmentStatus = "enrolled"
	ProgramStatusPending   ProgramEnrollmentStatus = "pending"
	ProgramStatusSuspended ProgramEnrollmentStatus = "suspended"
	ProgramStatusCanceled  ProgramEnrollmentStatus = "canceled"
	ProgramStatusEnded     ProgramEnrollmentStatus = "ended"
)

// ValidProgramStatus reports whether s is an accepted input status.
func ValidProgramStatus(s string) bool {
	switch ProgramEnrollmentStatus(s) {
	case ProgramStatusEnrolled, ProgramStatusPending, ProgramStatusSuspended, ProgramStatusCanceled, ProgramStatusEnded:
		return true
	default:
		return false
	}
}

// CourseEnrollmentStatus enumerates writable course enrollment states.
type CourseEnrollmentStatus string

const (
	CourseStatusActive   CourseEnrollmentStatus = "active"
	CourseStatusInactive CourseEnrollmentStatus = "inactive"
)

// ValidCourseStatus reports whether s is an accepted input status.
func ValidCourseStatus(s string) bool {
	switch CourseEnrollmentStatus(s) {
	case CourseStatusActive, CourseStatusInactive:
		return true
	default:
		return false
	}
}

// WriteStatus is the per-record outcome of a batch write. On success it
// echoes the requested status; on failure it carries an error marker.
type WriteStatus string

const (
	WriteStatusInvalidStatus    WriteStatus = "invalid-status"
	WriteStatusDuplicated       WriteStatus = "duplicated"
	WriteStatusConflict         WriteStatus = "conflict"
	WriteStatusNotFound         WriteStatus = "not-found"
	WriteStatusNotInProgram     WriteStatus = "not-in-program"
	WriteStatusIllegalOperation WriteStatus = "illegal-operation"
	WriteStatusInternalError    WriteStatus = "internal-error"
)

// IsError reports whether the outcome is an error marker rather than a
// landed enrollment status.
func (s WriteStatus) IsError() bool {
	switch s {
	case WriteStatusInvalidStatus, WriteStatusDuplicated, WriteStatusConflict,
		WriteStatusNotFound, WriteStatusNotInProgram, WriteStatusIllegalOperation,
		WriteStatusInternalError:
		return true
	default:
		return false
	}
}

// ProgramEnrollment is a student's enrollment record at program level,
// keyed by an opaque organization-scoped student key.
type ProgramEnrollment struct {
	ProgramKey string                  `db:"program_key" json:"program_key"`
	StudentKey string                  `db:"student_key" json:"student_key"`
	Status     ProgramEnrollmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time               `db:"updated_at" json:"updated_at"`
}

// CourseEnrollment is a student's enrollment record for a course run.
type CourseEnrollment struct {
	ProgramKey string                 `db:"program_key" json:"program_key"`
	CourseKey  string                 `db:"course_key" json:"course_id"`
	StudentKey string                 `db:"student_key" json:"student_key"`
	Status     CourseEnrollmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time              `db:"updated_at" json:"updated_at"`
}
