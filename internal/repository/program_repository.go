package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openedu/registrar-api/internal/models"
)

// ProgramRepository reads program and course metadata.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs with total count, optionally filtered by organization.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	var (
		programs []models.Program
		total    int
	)
	if filter.Org != "" {
		const query = `SELECT program_key, program_title, program_url, org_key FROM programs WHERE org_key = $1 ORDER BY program_key LIMIT $2 OFFSET $3`
		if err := r.db.SelectContext(ctx, &programs, query, filter.Org, size, offset); err != nil {
			return nil, 0, fmt.Errorf("list programs: %w", err)
		}
		if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM programs WHERE org_key = $1`, filter.Org); err != nil {
			return nil, 0, fmt.Errorf("count programs: %w", err)
		}
		return programs, total, nil
	}
	const query = `SELECT program_key, program_title, program_url, org_key FROM programs ORDER BY program_key LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &programs, query, size, offset); err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM programs`); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	return programs, total, nil
}

// ListByOrgs returns programs owned by any of the given organizations.
// Used for org staff listings without an explicit org filter.
func (r *ProgramRepository) ListByOrgs(ctx context.Context, orgKeys []string, page, size int) ([]models.Program, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	var programs []models.Program
	const query = `SELECT program_key, program_title, program_url, org_key FROM programs WHERE org_key = ANY($1) ORDER BY program_key LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &programs, query, pq.Array(orgKeys), size, offset); err != nil {
		return nil, 0, fmt.Errorf("list programs by orgs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM programs WHERE org_key = ANY($1)`, pq.Array(orgKeys)); err != nil {
		return nil, 0, fmt.Errorf("count programs by orgs: %w", err)
	}
	return programs, total, nil
}

// GetByKey returns a program by its stable key.
func (r *ProgramRepository) GetByKey(ctx context.Context, programKey string) (*models.Program, error) {
	const query = `SELECT program_key, program_title, program_url, org_key FROM programs WHERE program_key = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, programKey); err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	return &program, nil
}

// ListCourses returns the courses of a program.
func (r *ProgramRepository) ListCourses(ctx context.Context, programKey string) ([]models.Course, error) {
	const query = `SELECT course_key, external_course_key, course_title, course_url, program_key
FROM courses WHERE program_key = $1 ORDER BY course_key`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, programKey); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindCourse resolves a course within a program by internal or external key.
func (r *ProgramRepository) FindCourse(ctx context.Context, programKey, courseID string) (*models.Course, error) {
	const query = `SELECT course_key, external_course_key, course_title, course_url, program_key
FROM courses WHERE program_key = $1 AND (course_key = $2 OR external_course_key = $2)`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, programKey, courseID); err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}
