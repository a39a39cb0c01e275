package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/dto"
	"github.com/openedu/registrar-api/internal/models"
	"github.com/openedu/registrar-api/internal/repository"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
	"github.com/openedu/registrar-api/pkg/jobs"
)

type jobStore interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, id string, params repository.UpdateJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.Job, error)
	ListStaleInProgress(ctx context.Context, cutoff time.Time, limit int) ([]models.Job, error)
	ListSucceededBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Job, error)
}

type jobDispatcher interface {
	Enqueue(task jobs.Task) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.Job) (*ExportResult, error)
	ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

type programAccess interface {
	Get(ctx context.Context, programKey string, claims *models.APIClaims) (*models.Program, error)
	ResolveCourse(ctx context.Context, programKey, courseID string, claims *models.APIClaims) (*models.Course, error)
}

// JobConfig tunes background job behaviour.
type JobConfig struct {
	MaxRetries      int
	StaleAge        time.Duration
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// CreateJobRequest captures a submission for an asynchronous export.
type CreateJobRequest struct {
	TaskType   models.JobTaskType
	ProgramKey string
	CourseID   string
	Format     string
	APIPrefix  string
}

// JobService owns the export job lifecycle: submission, dispatch, worker
// execution, status reads and background maintenance.
type JobService struct {
	store    jobStore
	queue    jobDispatcher
	exports  exportGenerator
	programs programAccess
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      JobConfig
}

// NewJobService constructs JobService.
func NewJobService(store jobStore, queue jobDispatcher, exports exportGenerator, programs programAccess, metrics *MetricsService, cfg JobConfig, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = time.Hour
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &JobService{
		store:    store,
		queue:    queue,
		exports:  exports,
		programs: programs,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateExportJob validates the request, persists a Queued job and hands it
// to the worker pool. Returns the job id together with a polling URL.
func (s *JobService) CreateExportJob(ctx context.Context, req CreateJobRequest, claims *models.APIClaims) (*dto.NewJobResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	format := req.Format
	if format == "" {
		format = string(models.ExportFormatJSON)
	}
	if !models.ValidExportFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	if _, err := s.programs.Get(ctx, req.ProgramKey, claims); err != nil {
		return nil, err
	}

	job := &models.Job{
		TaskType:   req.TaskType,
		ProgramKey: req.ProgramKey,
		Format:     models.ExportFormat(format),
		State:      models.JobStateQueued,
		CreatedBy:  claims.UserID,
	}
	if req.TaskType == models.TaskCourseEnrollments || req.TaskType == models.TaskCourseGrades {
		course, err := s.programs.ResolveCourse(ctx, req.ProgramKey, req.CourseID, claims)
		if err != nil {
			return nil, err
		}
		job.CourseKey = &course.Key
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job")
	}

	if err := s.queue.Enqueue(jobs.Task{ID: job.ID, Type: string(job.TaskType)}); err != nil {
		// The row stays Queued; cold start recovery will pick it up.
		s.logger.Sugar().Warnw("failed to enqueue job", "job_id", job.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordJobSubmitted(string(job.TaskType))
	}

	return &dto.NewJobResponse{
		JobID:  job.ID,
		JobURL: fmt.Sprintf("%s/jobs/%s", strings.TrimSuffix(req.APIPrefix, "/"), job.ID),
	}, nil
}

// GetStatus returns the lifecycle view of a job. Jobs are visible only to
// their creator and to admins; everyone else gets a 404 so job ids do not
// leak.
func (s *JobService) GetStatus(ctx context.Context, jobID string, claims *models.APIClaims) (*dto.JobStatusResponse, error) {
	start := time.Now()
	job, err := s.store.GetByID(ctx, jobID)
	s.metrics.ObserveDBQuery("job_lookup", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	if claims == nil || (claims.Role != models.RoleAdmin && claims.UserID != job.CreatedBy) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}

	resp := &dto.JobStatusResponse{
		Created: job.CreatedAt,
		State:   job.State,
	}
	if job.State == models.JobStateSucceeded {
		resp.Result = job.ResultURL
	}
	return resp, nil
}

// Handle runs one queued export. It is the worker pool handler: returning an
// error triggers a retry, and the final failed attempt marks the job Failed.
func (s *JobService) Handle(ctx context.Context, task jobs.Task) error {
	job, err := s.store.GetByID(ctx, task.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Sugar().Warnw("queued job row missing", "job_id", task.ID)
			return nil
		}
		return fmt.Errorf("load job %s: %w", task.ID, err)
	}
	if job.State.Terminal() {
		return nil
	}

	started := time.Now()
	inProgress := models.JobStateInProgress
	if err := s.store.Update(ctx, job.ID, repository.UpdateJobParams{State: &inProgress}); err != nil {
		return fmt.Errorf("mark job %s in progress: %w", job.ID, err)
	}
	job.State = inProgress

	result, err := s.exports.Generate(ctx, job)
	if err != nil {
		if task.Attempt >= s.cfg.MaxRetries {
			s.markFailed(ctx, job.ID, err, started)
		}
		return fmt.Errorf("generate export for job %s: %w", job.ID, err)
	}

	succeeded := models.JobStateSucceeded
	finished := time.Now().UTC()
	if err := s.store.Update(ctx, job.ID, repository.UpdateJobParams{
		State:      &succeeded,
		ResultURL:  &result.URL,
		FinishedAt: &finished,
	}); err != nil {
		return fmt.Errorf("mark job %s succeeded: %w", job.ID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordJobCompleted(string(succeeded), time.Since(started))
	}
	s.logger.Sugar().Infow("export job succeeded", "job_id", job.ID, "type", job.TaskType, "format", job.Format, "path", result.RelativePath)
	return nil
}

// RecoverPendingJobs re-enqueues Queued rows left over from a previous run.
func (s *JobService) RecoverPendingJobs(ctx context.Context) error {
	pending, err := s.store.ListQueued(ctx, 100)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Task{ID: job.ID, Type: string(job.TaskType)}); err != nil {
			s.logger.Sugar().Warnw("failed to recover job", "job_id", job.ID, "error", err)
			continue
		}
		s.logger.Sugar().Infow("recovered pending job", "job_id", job.ID, "type", job.TaskType)
	}
	return nil
}

// StartWatchdog cancels jobs stuck In Progress beyond the stale age, e.g.
// after a worker crash. Runs until ctx is done.
func (s *JobService) StartWatchdog(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cancelStaleJobs(ctx)
			}
		}
	}()
}

// StartCleanup periodically removes expired export files. Runs until ctx is
// done.
func (s *JobService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpiredResults(ctx)
			}
		}
	}()
}

// ResolveDownload validates a signed download token and opens the backing
// file. Only Succeeded jobs are downloadable.
func (s *JobService) ResolveDownload(ctx context.Context, token string) (*os.File, *models.Job, error) {
	jobID, relPath, _, err := s.exports.ParseToken(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	if job.State != models.JobStateSucceeded {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}

	file, err := s.exports.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists")
	}
	return file, job, nil
}

func (s *JobService) markFailed(ctx context.Context, jobID string, cause error, started time.Time) {
	failed := models.JobStateFailed
	finished := time.Now().UTC()
	msg := cause.Error()
	if err := s.store.Update(ctx, jobID, repository.UpdateJobParams{
		State:        &failed,
		ErrorMessage: &msg,
		FinishedAt:   &finished,
	}); err != nil {
		s.logger.Sugar().Errorw("failed to mark job failed", "job_id", jobID, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordJobCompleted(string(failed), time.Since(started))
	}
	s.logger.Sugar().Errorw("export job failed", "job_id", jobID, "error", cause)
}

func (s *JobService) cancelStaleJobs(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.StaleAge)
	stale, err := s.store.ListStaleInProgress(ctx, cutoff, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to list stale jobs", "error", err)
		return
	}
	for _, job := range stale {
		canceled := models.JobStateCanceled
		finished := time.Now().UTC()
		msg := "canceled by watchdog: no progress within stale age"
		if err := s.store.Update(ctx, job.ID, repository.UpdateJobParams{
			State:        &canceled,
			ErrorMessage: &msg,
			FinishedAt:   &finished,
		}); err != nil {
			s.logger.Sugar().Warnw("failed to cancel stale job", "job_id", job.ID, "error", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordJobCompleted(string(canceled), time.Since(job.CreatedAt))
		}
		s.logger.Sugar().Warnw("canceled stale job", "job_id", job.ID, "created", job.CreatedAt)
	}
}

func (s *JobService) cleanupExpiredResults(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.store.ListSucceededBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Sugar().Warnw("failed to list expired jobs", "error", err)
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		token := strings.TrimPrefix(*job.ResultURL, "/export/")
		_, relPath, _, err := s.exports.ParseToken(token, true)
		if err != nil {
			continue
		}
		if err := s.exports.Delete(relPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Sugar().Warnw("failed to delete expired export", "job_id", job.ID, "error", err)
		}
	}

	// Catch-all sweep for files orphaned by crashes or manual edits.
	removed, err := s.exports.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup sweep failed", "error", err)
		return
	}
	if len(removed) > 0 {
		s.logger.Sugar().Infow("export cleanup removed files", "count", len(removed))
	}
}
