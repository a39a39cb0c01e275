package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/models"
	"github.com/openedu/registrar-api/pkg/export"
	"github.com/openedu/registrar-api/pkg/storage"
)

type exportEnrollmentReader interface {
	ListProgramEnrollments(ctx context.Context, programKey string) ([]models.ProgramEnrollment, error)
	ListCourseEnrollments(ctx context.Context, courseKey string) ([]models.CourseEnrollment, error)
}

type exportGradeReader interface {
	ListByCourse(ctx context.Context, courseKey string) ([]models.CourseGrade, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type jsonRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds export datasets and persists rendered files, handing
// back signed download URLs.
type ExportService struct {
	enrollments exportEnrollmentReader
	grades      exportGradeReader
	storage     fileStorage
	csv         csvRenderer
	json        jsonRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments exportEnrollmentReader, grades exportGradeReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		enrollments: enrollments,
		grades:      grades,
		storage:     store,
		csv:         export.NewCSVExporter(),
		json:        export.NewJSONExporter(),
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds the dataset for the job's task type and stores the
// rendered export in the requested format.
func (s *ExportService) Generate(ctx context.Context, job *models.Job) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatJSON:
		payload, err = s.json.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := buildExportFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("/export/%s", token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.Job) (export.Dataset, error) {
	switch job.TaskType {
	case models.TaskProgramEnrollments:
		enrollments, err := s.enrollments.ListProgramEnrollments(ctx, job.ProgramKey)
		if err != nil {
			return export.Dataset{}, err
		}
		rows := make([]map[string]string, 0, len(enrollments))
		for _, e := range enrollments {
			rows = append(rows, map[string]string{
				"student_key": e.StudentKey,
				"status":      string(e.Status),
			})
		}
		return export.Dataset{Headers: []string{"student_key", "status"}, Rows: rows}, nil

	case models.TaskCourseEnrollments:
		if job.CourseKey == nil {
			return export.Dataset{}, fmt.Errorf("course enrollment export missing course key")
		}
		enrollments, err := s.enrollments.ListCourseEnrollments(ctx, *job.CourseKey)
		if err != nil {
			return export.Dataset{}, err
		}
		rows := make([]map[string]string, 0, len(enrollments))
		for _, e := range enrollments {
			rows = append(rows, map[string]string{
				"student_key": e.StudentKey,
				"course_id":   e.CourseKey,
				"status":      string(e.Status),
			})
		}
		return export.Dataset{Headers: []string{"student_key", "course_id", "status"}, Rows: rows}, nil

	case models.TaskCourseGrades:
		if job.CourseKey == nil {
			return export.Dataset{}, fmt.Errorf("grade export missing course key")
		}
		grades, err := s.grades.ListByCourse(ctx, *job.CourseKey)
		if err != nil {
			return export.Dataset{}, err
		}
		rows := make([]map[string]string, 0, len(grades))
		for _, g := range grades {
			rows = append(rows, map[string]string{
				"student_key":  g.StudentKey,
				"course_id":    g.CourseKey,
				"letter_grade": g.LetterGrade,
				"percent":      strconv.FormatFloat(g.Percent, 'f', 2, 64),
				"passed":       strconv.FormatBool(g.Passed),
			})
		}
		return export.Dataset{Headers: []string{"student_key", "course_id", "letter_grade", "percent", "passed"}, Rows: rows}, nil

	default:
		return export.Dataset{}, fmt.Errorf("unknown task type %s", job.TaskType)
	}
}

func buildExportFilename(job *models.Job) string {
	scope := job.ProgramKey
	if job.CourseKey != nil {
		scope = *job.CourseKey
	}
	return fmt.Sprintf("%s/%s_%s.%s", job.TaskType, scope, job.ID, job.Format)
}
