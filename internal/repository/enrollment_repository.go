package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openedu/registrar-api/internal/models"
)

// EnrollmentRepository persists program and course enrollment records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// GetProgramEnrollment returns the enrollment record for a student in a program.
func (r *EnrollmentRepository) GetProgramEnrollment(ctx context.Context, programKey, studentKey string) (*models.ProgramEnrollment, error) {
	const query = `SELECT program_key, student_key, status, created_at, updated_at
FROM program_enrollments WHERE program_key = $1 AND student_key = $2`
	var enrollment models.ProgramEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, programKey, studentKey); err != nil {
		return nil, fmt.Errorf("get program enrollment: %w", err)
	}
	return &enrollment, nil
}

// CreateProgramEnrollment inserts a new program enrollment record.
func (r *EnrollmentRepository) CreateProgramEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error {
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.UpdatedAt = enrollment.CreatedAt
	const query = `INSERT INTO program_enrollments (program_key, student_key, status, created_at, updated_at)
VALUES (:program_key, :student_key, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create program enrollment: %w", err)
	}
	return nil
}

// UpdateProgramEnrollmentStatus moves an existing record to the given status.
func (r *EnrollmentRepository) UpdateProgramEnrollmentStatus(ctx context.Context, programKey, studentKey string, status models.ProgramEnrollmentStatus) error {
	const query = `UPDATE program_enrollments SET status = $1, updated_at = $2 WHERE program_key = $3 AND student_key = $4`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), programKey, studentKey); err != nil {
		return fmt.Errorf("update program enrollment: %w", err)
	}
	return nil
}

// ListProgramEnrollments returns every enrollment record of a program,
// ordered by student key. Used by the export worker.
func (r *EnrollmentRepository) ListProgramEnrollments(ctx context.Context, programKey string) ([]models.ProgramEnrollment, error) {
	const query = `SELECT program_key, student_key, status, created_at, updated_at
FROM program_enrollments WHERE program_key = $1 ORDER BY student_key`
	var enrollments []models.ProgramEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, programKey); err != nil {
		return nil, fmt.Errorf("list program enrollments: %w", err)
	}
	return enrollments, nil
}

// CountProgramEnrollmentsByStatus aggregates enrollment counts per status.
// Used by the report generator.
func (r *EnrollmentRepository) CountProgramEnrollmentsByStatus(ctx context.Context, programKey string) (map[models.ProgramEnrollmentStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM program_enrollments WHERE program_key = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, programKey)
	if err != nil {
		return nil, fmt.Errorf("count program enrollments: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.ProgramEnrollmentStatus]int)
	for rows.Next() {
		var (
			status models.ProgramEnrollmentStatus
			total  int
		)
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan enrollment count: %w", err)
		}
		counts[status] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollment counts: %w", err)
	}
	return counts, nil
}

// GetCourseEnrollment returns the enrollment record for a student in a course run.
func (r *EnrollmentRepository) GetCourseEnrollment(ctx context.Context, courseKey, studentKey string) (*models.CourseEnrollment, error) {
	const query = `SELECT program_key, course_key, student_key, status, created_at, updated_at
FROM course_enrollments WHERE course_key = $1 AND student_key = $2`
	var enrollment models.CourseEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, courseKey, studentKey); err != nil {
		return nil, fmt.Errorf("get course enrollment: %w", err)
	}
	return &enrollment, nil
}

// CreateCourseEnrollment inserts a new course enrollment record.
func (r *EnrollmentRepository) CreateCourseEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.UpdatedAt = enrollment.CreatedAt
	const query = `INSERT INTO course_enrollments (program_key, course_key, student_key, status, created_at, updated_at)
VALUES (:program_key, :course_key, :student_key, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create course enrollment: %w", err)
	}
	return nil
}

// UpdateCourseEnrollmentStatus moves an existing record to the given status.
func (r *EnrollmentRepository) UpdateCourseEnrollmentStatus(ctx context.Context, courseKey, studentKey string, status models.CourseEnrollmentStatus) error {
	const query = `UPDATE course_enrollments SET status = $1, updated_at = $2 WHERE course_key = $3 AND student_key = $4`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), courseKey, studentKey); err != nil {
		return fmt.Errorf("update course enrollment: %w", err)
	}
	return nil
}

// ListCourseEnrollments returns every enrollment record of a course run,
// ordered by student key. Used by the export worker.
func (r *EnrollmentRepository) ListCourseEnrollments(ctx context.Context, courseKey string) ([]models.CourseEnrollment, error) {
	const query = `SELECT program_key, course_key, student_key, status, created_at, updated_at
FROM course_enrollments WHERE course_key = $1 ORDER BY student_key`
	var enrollments []models.CourseEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseKey); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}
