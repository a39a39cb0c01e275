package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/dto"
	"github.com/openedu/registrar-api/internal/models"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	programEnrollments map[string]models.ProgramEnrollment
	courseEnrollments  map[string]models.CourseEnrollment
	createdProgram     []models.ProgramEnrollment
	createdCourse      []models.CourseEnrollment
	updatedProgram     map[string]models.ProgramEnrollmentStatus
	updatedCourse      map[string]models.CourseEnrollmentStatus
	failLookups        bool
}

func programEnrollmentKey(programKey, studentKey string) string {
	return programKey + "/" + studentKey
}

func (m *mockEnrollmentRepo) GetProgramEnrollment(ctx context.Context, programKey, studentKey string) (*models.ProgramEnrollment, error) {
	if m.failLookups {
		return nil, errors.New("database down")
	}
	if e, ok := m.programEnrollments[programEnrollmentKey(programKey, studentKey)]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) CreateProgramEnrollment(ctx context.Context, enrollment *models.ProgramEnrollment) error {
	if m.programEnrollments == nil {
		m.programEnrollments = make(map[string]models.ProgramEnrollment)
	}
	m.programEnrollments[programEnrollmentKey(enrollment.ProgramKey, enrollment.StudentKey)] = *enrollment
	m.createdProgram = append(m.createdProgram, *enrollment)
	return nil
}

func (m *mockEnrollmentRepo) UpdateProgramEnrollmentStatus(ctx context.Context, programKey, studentKey string, status models.ProgramEnrollmentStatus) error {
	if m.updatedProgram == nil {
		m.updatedProgram = make(map[string]models.ProgramEnrollmentStatus)
	}
	m.updatedProgram[studentKey] = status
	return nil
}

func (m *mockEnrollmentRepo) GetCourseEnrollment(ctx context.Context, courseKey, studentKey string) (*models.CourseEnrollment, error) {
	if e, ok := m.courseEnrollments[courseKey+"/"+studentKey]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) CreateCourseEnrollment(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if m.courseEnrollments == nil {
		m.courseEnrollments = make(map[string]models.CourseEnrollment)
	}
	m.courseEnrollments[enrollment.CourseKey+"/"+enrollment.StudentKey] = *enrollment
	m.createdCourse = append(m.createdCourse, *enrollment)
	return nil
}

func (m *mockEnrollmentRepo) UpdateCourseEnrollmentStatus(ctx context.Context, courseKey, studentKey string, status models.CourseEnrollmentStatus) error {
	if m.updatedCourse == nil {
		m.updatedCourse = make(map[string]models.CourseEnrollmentStatus)
	}
	m.updatedCourse[studentKey] = status
	return nil
}

type mockProgramResolver struct {
	programs map[string]models.Program
	courses  map[string]models.Course
}

func (m *mockProgramResolver) Get(ctx context.Context, programKey string, claims *models.APIClaims) (*models.Program, error) {
	p, ok := m.programs[programKey]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	if !claims.HasOrg(p.OrgKey) {
		return nil, appErrors.ErrForbidden
	}
	return &p, nil
}

func (m *mockProgramResolver) ResolveCourse(ctx context.Context, programKey, courseID string, claims *models.APIClaims) (*models.Course, error) {
	if _, err := m.Get(ctx, programKey, claims); err != nil {
		return nil, err
	}
	c, ok := m.courses[courseID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found in program")
	}
	return &c, nil
}

func adminClaims() *models.APIClaims {
	return &models.APIClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo) {
	repo := &mockEnrollmentRepo{}
	programs := &mockProgramResolver{
		programs: map[string]models.Program{
			"upskill-cert": {Key: "upskill-cert", Title: "Upskill Certificate", OrgKey: "stanford"},
		},
		courses: map[string]models.Course{
			"course-v1:STAN+CS100": {Key: "course-v1:STAN+CS100", ExternalKey: "CS100-ext", ProgramKey: "upskill-cert"},
		},
	}
	svc := NewEnrollmentService(repo, programs, nil, validator.New(), zap.NewNop())
	return svc, repo
}

func TestWriteProgramEnrollmentsCreateAll(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "enrolled"},
		{StudentKey: "B", Status: "pending"},
	}, true, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, dto.BatchResult{"A": "enrolled", "B": "pending"}, result)
	assert.Equal(t, 200, result.StatusCode())
	assert.Len(t, repo.createdProgram, 2)
}

func TestWriteProgramEnrollmentsMixedOutcomes(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.programEnrollments = map[string]models.ProgramEnrollment{
		programEnrollmentKey("upskill-cert", "EXISTS"): {ProgramKey: "upskill-cert", StudentKey: "EXISTS", Status: models.ProgramStatusEnrolled},
	}

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "NEW", Status: "enrolled"},
		{StudentKey: "EXISTS", Status: "enrolled"},
		{StudentKey: "BADSTATUS", Status: "graduated"},
	}, true, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatus("enrolled"), result["NEW"])
	assert.Equal(t, models.WriteStatusConflict, result["EXISTS"])
	assert.Equal(t, models.WriteStatusInvalidStatus, result["BADSTATUS"])
	assert.Equal(t, 207, result.StatusCode())
}

func TestWriteProgramEnrollmentsAllFailedIs422(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "graduated"},
		{StudentKey: "B", Status: "expelled"},
	}, true, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, 422, result.StatusCode())
}

func TestWriteProgramEnrollmentsDuplicatedKeysCollapse(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "DUP", Status: "enrolled"},
		{StudentKey: "DUP", Status: "pending"},
		{StudentKey: "OK", Status: "enrolled"},
	}, true, adminClaims())

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, models.WriteStatusDuplicated, result["DUP"])
	assert.Equal(t, models.WriteStatus("enrolled"), result["OK"])
	// The duplicated key must not have been written.
	assert.Len(t, repo.createdProgram, 1)
	assert.Equal(t, "OK", repo.createdProgram[0].StudentKey)
}

func TestWriteProgramEnrollmentsBatchTooLarge(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	records := make([]dto.EnrollmentRecord, models.MaxEnrollmentBatch+1)
	for i := range records {
		records[i] = dto.EnrollmentRecord{StudentKey: fmt.Sprintf("S%d", i), Status: "enrolled"}
	}

	_, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", records, true, adminClaims())
	require.Error(t, err)
	assert.Equal(t, 413, appErrors.FromError(err).Status)
}

func TestWriteProgramEnrollmentsEmptyBatchRejected(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", nil, true, adminClaims())
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestWriteProgramEnrollmentsMissingStudentKeyRejectsBatch(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	_, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "enrolled"},
		{Status: "enrolled"},
	}, true, adminClaims())

	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Empty(t, repo.createdProgram)
}

func TestWriteProgramEnrollmentsUnknownProgram(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, err := svc.WriteProgramEnrollments(context.Background(), "ghost", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "enrolled"},
	}, true, adminClaims())

	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestWriteProgramEnrollmentsForeignOrgForbidden(t *testing.T) {
	svc, _ := newEnrollmentFixture()
	staff := &models.APIClaims{UserID: "staff-1", Role: models.RoleOrgStaff, Orgs: []string{"mit"}}

	_, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "enrolled"},
	}, true, staff)

	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestModifyProgramEnrollments(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.programEnrollments = map[string]models.ProgramEnrollment{
		programEnrollmentKey("upskill-cert", "ACTIVE"): {ProgramKey: "upskill-cert", StudentKey: "ACTIVE", Status: models.ProgramStatusEnrolled},
		programEnrollmentKey("upskill-cert", "DONE"):   {ProgramKey: "upskill-cert", StudentKey: "DONE", Status: models.ProgramStatusEnded},
	}

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "ACTIVE", Status: "suspended"},
		{StudentKey: "DONE", Status: "enrolled"},
		{StudentKey: "MISSING", Status: "enrolled"},
	}, false, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatus("suspended"), result["ACTIVE"])
	assert.Equal(t, models.WriteStatusIllegalOperation, result["DONE"])
	assert.Equal(t, models.WriteStatusNotFound, result["MISSING"])
	assert.Equal(t, 207, result.StatusCode())
	assert.Equal(t, models.ProgramStatusSuspended, repo.updatedProgram["ACTIVE"])
}

func TestModifyEndedToEndedAllowed(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.programEnrollments = map[string]models.ProgramEnrollment{
		programEnrollmentKey("upskill-cert", "DONE"): {ProgramKey: "upskill-cert", StudentKey: "DONE", Status: models.ProgramStatusEnded},
	}

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "DONE", Status: "ended"},
	}, false, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatus("ended"), result["DONE"])
	assert.Equal(t, 200, result.StatusCode())
}

func TestWriteProgramEnrollmentsRepoFailure(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.failLookups = true

	result, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "enrolled"},
	}, true, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatusInternalError, result["A"])
	assert.Equal(t, 422, result.StatusCode())
}

func TestWriteCourseEnrollments(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.programEnrollments = map[string]models.ProgramEnrollment{
		programEnrollmentKey("upskill-cert", "MEMBER"): {ProgramKey: "upskill-cert", StudentKey: "MEMBER", Status: models.ProgramStatusEnrolled},
	}

	result, err := svc.WriteCourseEnrollments(context.Background(), "upskill-cert", "course-v1:STAN+CS100", []dto.EnrollmentRecord{
		{StudentKey: "MEMBER", Status: "active"},
		{StudentKey: "STRANGER", Status: "active"},
		{StudentKey: "BAD", Status: "enrolled"},
	}, true, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatus("active"), result["MEMBER"])
	assert.Equal(t, models.WriteStatusNotInProgram, result["STRANGER"])
	assert.Equal(t, models.WriteStatusInvalidStatus, result["BAD"])
	require.Len(t, repo.createdCourse, 1)
	assert.Equal(t, "course-v1:STAN+CS100", repo.createdCourse[0].CourseKey)
}

func TestWriteCourseEnrollmentsByExternalKey(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.programEnrollments = map[string]models.ProgramEnrollment{
		programEnrollmentKey("upskill-cert", "MEMBER"): {ProgramKey: "upskill-cert", StudentKey: "MEMBER", Status: models.ProgramStatusEnrolled},
	}
	// Register the course under its external key as well, mirroring lookup
	// by either identifier.
	programs := &mockProgramResolver{
		programs: map[string]models.Program{
			"upskill-cert": {Key: "upskill-cert", OrgKey: "stanford"},
		},
		courses: map[string]models.Course{
			"CS100-ext": {Key: "course-v1:STAN+CS100", ExternalKey: "CS100-ext", ProgramKey: "upskill-cert"},
		},
	}
	svc = NewEnrollmentService(repo, programs, nil, validator.New(), zap.NewNop())

	result, err := svc.WriteCourseEnrollments(context.Background(), "upskill-cert", "CS100-ext", []dto.EnrollmentRecord{
		{StudentKey: "MEMBER", Status: "active"},
	}, true, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatus("active"), result["MEMBER"])
	// Writes land against the internal course key.
	require.Len(t, repo.createdCourse, 1)
	assert.Equal(t, "course-v1:STAN+CS100", repo.createdCourse[0].CourseKey)
}

func TestModifyCourseEnrollments(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.programEnrollments = map[string]models.ProgramEnrollment{
		programEnrollmentKey("upskill-cert", "MEMBER"): {ProgramKey: "upskill-cert", StudentKey: "MEMBER", Status: models.ProgramStatusEnrolled},
	}
	repo.courseEnrollments = map[string]models.CourseEnrollment{
		"course-v1:STAN+CS100/MEMBER": {CourseKey: "course-v1:STAN+CS100", StudentKey: "MEMBER", Status: models.CourseStatusActive},
	}

	result, err := svc.WriteCourseEnrollments(context.Background(), "upskill-cert", "course-v1:STAN+CS100", []dto.EnrollmentRecord{
		{StudentKey: "MEMBER", Status: "inactive"},
	}, false, adminClaims())

	require.NoError(t, err)
	assert.Equal(t, models.WriteStatus("inactive"), result["MEMBER"])
	assert.Equal(t, models.CourseStatusInactive, repo.updatedCourse["MEMBER"])
}

func TestWriteCourseEnrollmentsUnknownCourse(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, err := svc.WriteCourseEnrollments(context.Background(), "upskill-cert", "ghost-course", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "active"},
	}, true, adminClaims())

	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestWriteProgramEnrollmentsObservesQueryTiming(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	programs := &mockProgramResolver{
		programs: map[string]models.Program{
			"upskill-cert": {Key: "upskill-cert", Title: "Upskill Certificate", OrgKey: "stanford"},
		},
	}
	metrics := NewMetricsService()
	svc := NewEnrollmentService(repo, programs, metrics, validator.New(), zap.NewNop())

	_, err := svc.WriteProgramEnrollments(context.Background(), "upskill-cert", []dto.EnrollmentRecord{
		{StudentKey: "A", Status: "enrolled"},
	}, true, adminClaims())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `db_query_duration_seconds_count{query="program_enrollment_write"} 1`)
}
