package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/models"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
	"github.com/openedu/registrar-api/pkg/export"
	"github.com/openedu/registrar-api/pkg/storage"
)

// Subject prefix distinguishing report download tokens from job result
// tokens inside the shared signer.
const reportTokenPrefix = "report:"

// Postgres error code for unique constraint violations.
const uniqueViolation = pq.ErrorCode("23505")

type reportStore interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.ProgramReport, error)
	Create(ctx context.Context, report *models.ProgramReport) error
}

type reportProgramCatalog interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error)
}

type enrollmentCounter interface {
	CountProgramEnrollmentsByStatus(ctx context.Context, programKey string) (map[models.ProgramEnrollmentStatus]int, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportService lists program reports and periodically generates enrollment
// summary reports in CSV and PDF form.
type ReportService struct {
	store    reportStore
	catalog  reportProgramCatalog
	counts   enrollmentCounter
	programs programAccess
	storage  fileStorage
	signer   *storage.SignedURLSigner
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(store reportStore, catalog reportProgramCatalog, counts enrollmentCounter, programs programAccess, fileStore fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:    store,
		catalog:  catalog,
		counts:   counts,
		programs: programs,
		storage:  fileStore,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ListReports returns the reports of a program visible to the caller,
// newest first, optionally bounded by a minimum creation date.
func (s *ReportService) ListReports(ctx context.Context, programKey string, minCreatedDate *time.Time, claims *models.APIClaims) ([]models.ProgramReport, error) {
	if _, err := s.programs.Get(ctx, programKey, claims); err != nil {
		return nil, err
	}
	reports, err := s.store.List(ctx, models.ReportFilter{ProgramKey: programKey, MinCreatedDate: minCreatedDate})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if reports == nil {
		reports = []models.ProgramReport{}
	}
	return reports, nil
}

// GenerateAll produces an enrollment summary report for every program. Each
// run appends one CSV and one PDF report per program; re-runs within the
// same day are skipped by the unique name constraint.
func (s *ReportService) GenerateAll(ctx context.Context) {
	programs, _, err := s.catalog.List(ctx, models.ProgramFilter{Page: 1, PageSize: 500})
	if err != nil {
		s.logger.Sugar().Warnw("report generation: failed to list programs", "error", err)
		return
	}
	for _, program := range programs {
		if err := s.generateForProgram(ctx, program); err != nil {
			s.logger.Sugar().Warnw("report generation failed", "program_key", program.Key, "error", err)
		}
	}
}

// StartGenerator runs GenerateAll on the given interval until ctx is done.
func (s *ReportService) StartGenerator(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.GenerateAll(ctx)
			}
		}
	}()
}

// OpenReport validates a report download token and opens the backing file.
// Tokens signed for job results are rejected here.
func (s *ReportService) OpenReport(token string) (*os.File, string, error) {
	subject, relPath, _, err := s.signer.Parse(token, false)
	if err != nil || !strings.HasPrefix(subject, reportTokenPrefix) {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file no longer exists")
	}
	return file, path.Base(relPath), nil
}

func (s *ReportService) generateForProgram(ctx context.Context, program models.Program) error {
	counts, err := s.counts.CountProgramEnrollmentsByStatus(ctx, program.Key)
	if err != nil {
		return fmt.Errorf("count enrollments: %w", err)
	}
	dataset := summaryDataset(counts)
	day := time.Now().UTC().Format("2006-01-02")
	baseName := fmt.Sprintf("enrollment_summary_%s", day)

	csvBytes, err := s.csv.Render(dataset)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	if err := s.saveReport(ctx, program.Key, baseName+".csv", csvBytes); err != nil {
		return err
	}

	pdfBytes, err := s.pdf.Render(dataset, fmt.Sprintf("%s enrollment summary %s", program.Title, day))
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return s.saveReport(ctx, program.Key, baseName+".pdf", pdfBytes)
}

func (s *ReportService) saveReport(ctx context.Context, programKey, name string, payload []byte) error {
	relPath, err := s.storage.Save(fmt.Sprintf("reports/%s/%s", programKey, name), payload)
	if err != nil {
		return fmt.Errorf("store report %s: %w", name, err)
	}
	token, _, err := s.signer.Generate(reportTokenPrefix+programKey+"/"+name, relPath)
	if err != nil {
		return fmt.Errorf("sign report %s: %w", name, err)
	}
	report := &models.ProgramReport{
		ProgramKey:  programKey,
		Name:        name,
		DownloadURL: fmt.Sprintf("/export/%s", token),
	}
	if err := s.store.Create(ctx, report); err != nil {
		// Same-day re-runs hit the unique name constraint; the file was
		// overwritten and the existing row stands.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			s.logger.Sugar().Debugw("report row already exists", "program_key", programKey, "name", name)
			return nil
		}
		return fmt.Errorf("record report %s: %w", name, err)
	}
	return nil
}

func summaryDataset(counts map[models.ProgramEnrollmentStatus]int) export.Dataset {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)

	rows := make([]map[string]string, 0, len(statuses))
	for _, status := range statuses {
		rows = append(rows, map[string]string{
			"status": status,
			"count":  strconv.Itoa(counts[models.ProgramEnrollmentStatus(status)]),
		})
	}
	return export.Dataset{Headers: []string{"status", "count"}, Rows: rows}
}
