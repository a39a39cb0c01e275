package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openedu/registrar-api/internal/models"
)

// GradeRepository reads final course grades synced from the learning platform.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListByCourse returns grades for a course run, ordered by student key.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseKey string) ([]models.CourseGrade, error) {
	const query = `SELECT course_key, student_key, letter_grade, percent, passed
FROM course_grades WHERE course_key = $1 ORDER BY student_key`
	var grades []models.CourseGrade
	if err := r.db.SelectContext(ctx, &grades, query, courseKey); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	return grades, nil
}
