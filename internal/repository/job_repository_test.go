package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/openedu/registrar-api/internal/models"
)

func jobColumns() []string {
	return []string{"id", "task_type", "program_key", "course_key", "format", "state", "result_url", "created_by", "created_at", "finished_at", "error_message"}
}

func TestJobRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jobs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.Job{
		TaskType:   models.TaskProgramEnrollments,
		ProgramKey: "upskill-cert",
		Format:     models.ExportFormatJSON,
		CreatedBy:  "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.JobStateQueued, job.State)
	require.False(t, job.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(jobColumns()).
		AddRow("job-1", "program_enrollments", "upskill-cert", nil, "csv", "Queued", nil, "admin-1", now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, models.JobStateQueued, job.State)
	require.Nil(t, job.CourseKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryUpdateExcludesTerminalStates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobRepository(db)
	state := models.JobStateSucceeded
	result := "/export/tok"
	finished := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET state = $1, result_url = $2, finished_at = $3 WHERE id = $4 AND state NOT IN ('Succeeded', 'Failed', 'Canceled')")).
		WithArgs(state, result, finished, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateJobParams{
		State:      &state,
		ResultURL:  &result,
		FinishedAt: &finished,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryUpdateNoFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobRepository(db)
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewJobRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows(jobColumns()).
		AddRow("job-1", "program_enrollments", "upskill-cert", nil, "json", "Queued", nil, "admin-1", now, nil, nil).
		AddRow("job-2", "course_grades", "upskill-cert", "course-v1:STAN+CS100", "csv", "Queued", nil, "admin-1", now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE state = 'Queued'")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
