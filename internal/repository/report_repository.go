package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openedu/registrar-api/internal/models"
)

// ReportRepository persists program report pointers.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// List returns reports of a program, newest first, optionally bounded by a
// minimum creation date.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.ProgramReport, error) {
	var reports []models.ProgramReport
	if filter.MinCreatedDate != nil {
		const query = `SELECT program_key, name, created_date, download_url
FROM program_reports WHERE program_key = $1 AND created_date >= $2 ORDER BY created_date DESC`
		if err := r.db.SelectContext(ctx, &reports, query, filter.ProgramKey, *filter.MinCreatedDate); err != nil {
			return nil, fmt.Errorf("list program reports: %w", err)
		}
		return reports, nil
	}
	const query = `SELECT program_key, name, created_date, download_url
FROM program_reports WHERE program_key = $1 ORDER BY created_date DESC`
	if err := r.db.SelectContext(ctx, &reports, query, filter.ProgramKey); err != nil {
		return nil, fmt.Errorf("list program reports: %w", err)
	}
	return reports, nil
}

// Create appends a report pointer. Reports are append-only; names are unique
// within a program.
func (r *ReportRepository) Create(ctx context.Context, report *models.ProgramReport) error {
	if report.CreatedDate.IsZero() {
		report.CreatedDate = time.Now().UTC()
	}
	const query = `INSERT INTO program_reports (program_key, name, created_date, download_url)
VALUES (:program_key, :name, :created_date, :download_url)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create program report: %w", err)
	}
	return nil
}
