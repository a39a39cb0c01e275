package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openedu/registrar-api/internal/models"
)

// JobRepository persists export job metadata.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.State == "" {
		job.State = models.JobStateQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO jobs (id, task_type, program_key, course_key, format, state, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :task_type, :program_key, :course_key, :format, :state, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	const query = `SELECT id, task_type, program_key, course_key, format, state, result_url, created_by, created_at, finished_at, error_message
FROM jobs WHERE id = $1`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// UpdateJobParams defines the mutable fields of a job row.
type UpdateJobParams struct {
	State        *models.JobState
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row. Terminal rows are
// never modified: the WHERE clause excludes them so a finished job cannot
// transition again.
func (r *JobRepository) Update(ctx context.Context, id string, params UpdateJobParams) error {
	set := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	argPos := 1

	if params.State != nil {
		set = append(set, fmt.Sprintf("state = $%d", argPos))
		args = append(args, *params.State)
		argPos++
	}
	if params.ResultURL != nil {
		set = append(set, fmt.Sprintf("result_url = $%d", argPos))
		args = append(args, *params.ResultURL)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}
	if params.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", argPos))
		args = append(args, *params.FinishedAt)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"UPDATE jobs SET %s WHERE id = $%d AND state NOT IN ('Succeeded', 'Failed', 'Canceled')",
		strings.Join(set, ", "), argPos,
	)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// ListQueued fetches queued jobs (used for cold start recovery).
func (r *JobRepository) ListQueued(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, task_type, program_key, course_key, format, state, result_url, created_by, created_at, finished_at, error_message
FROM jobs WHERE state = 'Queued' ORDER BY created_at ASC LIMIT $1`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued jobs: %w", err)
	}
	return jobs, nil
}

// ListStaleInProgress returns jobs stuck In Progress since before the cutoff.
// The watchdog moves these to Canceled.
func (r *JobRepository) ListStaleInProgress(ctx context.Context, cutoff time.Time, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, task_type, program_key, course_key, format, state, result_url, created_by, created_at, finished_at, error_message
FROM jobs WHERE state = 'In Progress' AND created_at < $1 ORDER BY created_at ASC LIMIT $2`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list stale jobs: %w", err)
	}
	return jobs, nil
}

// ListSucceededBefore retrieves succeeded jobs finished prior to cutoff for
// result cleanup.
func (r *JobRepository) ListSucceededBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, task_type, program_key, course_key, format, state, result_url, created_by, created_at, finished_at, error_message
FROM jobs WHERE state = 'Succeeded' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list succeeded jobs: %w", err)
	}
	return jobs, nil
}
