package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/models"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
)

type mockProgramRepo struct {
	programs   map[string]models.Program
	courses    map[string][]models.Course
	listCalls  int
	byOrgCalls int
}

func (m *mockProgramRepo) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error) {
	m.listCalls++
	var out []models.Program
	for _, p := range m.programs {
		if filter.Org == "" || p.OrgKey == filter.Org {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockProgramRepo) ListByOrgs(ctx context.Context, orgKeys []string, page, size int) ([]models.Program, int, error) {
	m.byOrgCalls++
	allowed := make(map[string]bool, len(orgKeys))
	for _, org := range orgKeys {
		allowed[org] = true
	}
	var out []models.Program
	for _, p := range m.programs {
		if allowed[p.OrgKey] {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockProgramRepo) GetByKey(ctx context.Context, programKey string) (*models.Program, error) {
	if p, ok := m.programs[programKey]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgramRepo) ListCourses(ctx context.Context, programKey string) ([]models.Course, error) {
	return m.courses[programKey], nil
}

func (m *mockProgramRepo) FindCourse(ctx context.Context, programKey, courseID string) (*models.Course, error) {
	for _, c := range m.courses[programKey] {
		if c.Key == courseID || c.ExternalKey == courseID {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newProgramFixture() (*ProgramService, *mockProgramRepo) {
	repo := &mockProgramRepo{
		programs: map[string]models.Program{
			"upskill-cert":  {Key: "upskill-cert", Title: "Upskill Certificate", OrgKey: "stanford"},
			"mit-data-cert": {Key: "mit-data-cert", Title: "Data Certificate", OrgKey: "mit"},
		},
		courses: map[string][]models.Course{
			"upskill-cert": {
				{Key: "course-v1:STAN+CS100", ExternalKey: "CS100-ext", ProgramKey: "upskill-cert"},
			},
		},
	}
	cacheService := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewProgramService(repo, cacheService, time.Minute, zap.NewNop())
	return svc, repo
}

func TestProgramListAdminSeesEverything(t *testing.T) {
	svc, _ := newProgramFixture()

	programs, pagination, err := svc.List(context.Background(), models.ProgramFilter{}, adminClaims())
	require.NoError(t, err)
	assert.Len(t, programs, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestProgramListStaffScopedToOwnOrgs(t *testing.T) {
	svc, repo := newProgramFixture()
	staff := &models.APIClaims{UserID: "staff-1", Role: models.RoleOrgStaff, Orgs: []string{"stanford"}}

	programs, _, err := svc.List(context.Background(), models.ProgramFilter{}, staff)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "upskill-cert", programs[0].Key)
	assert.Equal(t, 1, repo.byOrgCalls)
}

func TestProgramListForeignOrgForbidden(t *testing.T) {
	svc, _ := newProgramFixture()
	staff := &models.APIClaims{UserID: "staff-1", Role: models.RoleOrgStaff, Orgs: []string{"stanford"}}

	_, _, err := svc.List(context.Background(), models.ProgramFilter{Org: "mit"}, staff)
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestProgramListStaffWithoutOrgs(t *testing.T) {
	svc, _ := newProgramFixture()
	staff := &models.APIClaims{UserID: "staff-1", Role: models.RoleOrgStaff}

	programs, pagination, err := svc.List(context.Background(), models.ProgramFilter{}, staff)
	require.NoError(t, err)
	assert.Empty(t, programs)
	assert.Zero(t, pagination.TotalCount)
}

func TestProgramGetUnknownIs404BeforeAccessCheck(t *testing.T) {
	svc, _ := newProgramFixture()
	staff := &models.APIClaims{UserID: "staff-1", Role: models.RoleOrgStaff, Orgs: []string{"stanford"}}

	_, err := svc.Get(context.Background(), "ghost", staff)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestProgramGetForeignOrgIs403(t *testing.T) {
	svc, _ := newProgramFixture()
	staff := &models.APIClaims{UserID: "staff-1", Role: models.RoleOrgStaff, Orgs: []string{"stanford"}}

	_, err := svc.Get(context.Background(), "mit-data-cert", staff)
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestResolveCourseByEitherKey(t *testing.T) {
	svc, _ := newProgramFixture()

	byInternal, err := svc.ResolveCourse(context.Background(), "upskill-cert", "course-v1:STAN+CS100", adminClaims())
	require.NoError(t, err)

	byExternal, err := svc.ResolveCourse(context.Background(), "upskill-cert", "CS100-ext", adminClaims())
	require.NoError(t, err)

	assert.Equal(t, byInternal.Key, byExternal.Key)
}

func TestResolveCourseUnknown(t *testing.T) {
	svc, _ := newProgramFixture()

	_, err := svc.ResolveCourse(context.Background(), "upskill-cert", "ghost", adminClaims())
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
