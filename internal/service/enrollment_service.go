package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/dto"
	"github.com/openedu/registrar-api/internal/models"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
)

type enrollmentRepository interface {
	GetProgramEnrollment(ctx context.Context, programKey, studentKey string) (*models.ProgramEnrollment, error)
	CreateProgramEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error
	UpdateProgramEnrollmentStatus(ctx context.Context, programKey, studentKey string, status models.ProgramEnrollmentStatus) error
	GetCourseEnrollment(ctx context.Context, courseKey, studentKey string) (*models.CourseEnrollment, error)
	CreateCourseEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error
	UpdateCourseEnrollmentStatus(ctx context.Context, courseKey, studentKey string, status models.CourseEnrollmentStatus) error
}

type programResolver interface {
	Get(ctx context.Context, programKey string, claims *models.APIClaims) (*models.Program, error)
	ResolveCourse(ctx context.Context, programKey, courseID string, claims *models.APIClaims) (*models.Course, error)
}

// EnrollmentService evaluates batch enrollment writes. Request-level failures
// (authorization, existence, size cap) reject the whole batch before any
// record is touched; afterwards every record is evaluated independently and
// partial success is reported per student key.
type EnrollmentService struct {
	repo      enrollmentRepository
	programs  programResolver
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, programs programResolver, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, programs: programs, metrics: metrics, validator: validate, logger: logger}
}

// WriteProgramEnrollments applies a batch of program enrollment writes.
// create selects POST (create) versus PATCH (modify) semantics.
func (s *EnrollmentService) WriteProgramEnrollments(ctx context.Context, programKey string, records []dto.EnrollmentRecord, create bool, claims *models.APIClaims) (dto.BatchResult, error) {
	if err := s.checkBatch(records); err != nil {
		return nil, err
	}
	if _, err := s.programs.Get(ctx, programKey, claims); err != nil {
		return nil, err
	}

	result := make(dto.BatchResult, len(records))
	duplicates := duplicateKeys(records)

	for _, record := range records {
		if duplicates[record.StudentKey] {
			result[record.StudentKey] = models.WriteStatusDuplicated
			continue
		}
		if !models.ValidProgramStatus(record.Status) {
			result[record.StudentKey] = models.WriteStatusInvalidStatus
			continue
		}
		result[record.StudentKey] = s.writeProgramRecord(ctx, programKey, record, create)
	}

	s.recordOutcomes(result)
	return result, nil
}

func (s *EnrollmentService) writeProgramRecord(ctx context.Context, programKey string, record dto.EnrollmentRecord, create bool) models.WriteStatus {
	defer s.observeQuery("program_enrollment_write", time.Now())
	requested := models.ProgramEnrollmentStatus(record.Status)

	existing, err := s.repo.GetProgramEnrollment(ctx, programKey, record.StudentKey)
	switch {
	case err == nil && create:
		return models.WriteStatusConflict
	case err != nil && errors.Is(err, sql.ErrNoRows):
		if !create {
			return models.WriteStatusNotFound
		}
		enrollment := &models.ProgramEnrollment{
			ProgramKey: programKey,
			StudentKey: record.StudentKey,
			Status:     requested,
		}
		if err := s.repo.CreateProgramEnrollment(ctx, enrollment); err != nil {
			s.logger.Warn("program enrollment insert failed",
				zap.String("program_key", programKey),
				zap.String("student_key", record.StudentKey),
				zap.Error(err))
			return models.WriteStatusInternalError
		}
		return models.WriteStatus(requested)
	case err != nil:
		s.logger.Warn("program enrollment lookup failed",
			zap.String("program_key", programKey),
			zap.String("student_key", record.StudentKey),
			zap.Error(err))
		return models.WriteStatusInternalError
	}

	// Modify path: an ended enrollment admits no other transitions.
	if existing.Status == models.ProgramStatusEnded && requested != models.ProgramStatusEnded {
		return models.WriteStatusIllegalOperation
	}
	if err := s.repo.UpdateProgramEnrollmentStatus(ctx, programKey, record.StudentKey, requested); err != nil {
		s.logger.Warn("program enrollment update failed",
			zap.String("program_key", programKey),
			zap.String("student_key", record.StudentKey),
			zap.Error(err))
		return models.WriteStatusInternalError
	}
	return models.WriteStatus(requested)
}

// WriteCourseEnrollments applies a batch of course enrollment writes. The
// course may be addressed by internal or external key; students without a
// program enrollment land in not-in-program.
func (s *EnrollmentService) WriteCourseEnrollments(ctx context.Context, programKey, courseID string, records []dto.EnrollmentRecord, create bool, claims *models.APIClaims) (dto.BatchResult, error) {
	if err := s.checkBatch(records); err != nil {
		return nil, err
	}
	course, err := s.programs.ResolveCourse(ctx, programKey, courseID, claims)
	if err != nil {
		return nil, err
	}

	result := make(dto.BatchResult, len(records))
	duplicates := duplicateKeys(records)

	for _, record := range records {
		if duplicates[record.StudentKey] {
			result[record.StudentKey] = models.WriteStatusDuplicated
			continue
		}
		if !models.ValidCourseStatus(record.Status) {
			result[record.StudentKey] = models.WriteStatusInvalidStatus
			continue
		}
		result[record.StudentKey] = s.writeCourseRecord(ctx, programKey, course.Key, record, create)
	}

	s.recordOutcomes(result)
	return result, nil
}

func (s *EnrollmentService) writeCourseRecord(ctx context.Context, programKey, courseKey string, record dto.EnrollmentRecord, create bool) models.WriteStatus {
	defer s.observeQuery("course_enrollment_write", time.Now())
	requested := models.CourseEnrollmentStatus(record.Status)

	if _, err := s.repo.GetProgramEnrollment(ctx, programKey, record.StudentKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WriteStatusNotInProgram
		}
		s.logger.Warn("program membership lookup failed",
			zap.String("program_key", programKey),
			zap.String("student_key", record.StudentKey),
			zap.Error(err))
		return models.WriteStatusInternalError
	}

	_, err := s.repo.GetCourseEnrollment(ctx, courseKey, record.StudentKey)
	switch {
	case err == nil && create:
		return models.WriteStatusConflict
	case err != nil && errors.Is(err, sql.ErrNoRows):
		if !create {
			return models.WriteStatusNotFound
		}
		enrollment := &models.CourseEnrollment{
			ProgramKey: programKey,
			CourseKey:  courseKey,
			StudentKey: record.StudentKey,
			Status:     requested,
		}
		if err := s.repo.CreateCourseEnrollment(ctx, enrollment); err != nil {
			s.logger.Warn("course enrollment insert failed",
				zap.String("course_key", courseKey),
				zap.String("student_key", record.StudentKey),
				zap.Error(err))
			return models.WriteStatusInternalError
		}
		return models.WriteStatus(requested)
	case err != nil:
		s.logger.Warn("course enrollment lookup failed",
			zap.String("course_key", courseKey),
			zap.String("student_key", record.StudentKey),
			zap.Error(err))
		return models.WriteStatusInternalError
	}

	if err := s.repo.UpdateCourseEnrollmentStatus(ctx, courseKey, record.StudentKey, requested); err != nil {
		s.logger.Warn("course enrollment update failed",
			zap.String("course_key", courseKey),
			zap.String("student_key", record.StudentKey),
			zap.Error(err))
		return models.WriteStatusInternalError
	}
	return models.WriteStatus(requested)
}

// checkBatch enforces request-level constraints before any record evaluation.
func (s *EnrollmentService) checkBatch(records []dto.EnrollmentRecord) error {
	if len(records) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "batch must contain at least one record")
	}
	if len(records) > models.MaxEnrollmentBatch {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, "batch exceeds 25 records")
	}
	for _, record := range records {
		if err := s.validator.Struct(record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment record")
		}
	}
	return nil
}

func (s *EnrollmentService) observeQuery(label string, start time.Time) {
	s.metrics.ObserveDBQuery(label, time.Since(start))
}

func (s *EnrollmentService) recordOutcomes(result dto.BatchResult) {
	if s.metrics == nil {
		return
	}
	succeeded, failed := 0, 0
	for _, status := range result {
		if status.IsError() {
			failed++
		} else {
			succeeded++
		}
	}
	s.metrics.RecordBatchOutcomes(succeeded, failed)
}

// duplicateKeys marks student keys submitted more than once in a batch. Each
// duplicated key collapses to one `duplicated` result entry and no write is
// performed for it.
func duplicateKeys(records []dto.EnrollmentRecord) map[string]bool {
	counts := make(map[string]int, len(records))
	for _, record := range records {
		counts[record.StudentKey]++
	}
	duplicates := make(map[string]bool)
	for key, count := range counts {
		if count > 1 {
			duplicates[key] = true
		}
	}
	return duplicates
}
