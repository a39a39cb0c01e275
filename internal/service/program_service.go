package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/models"
	appErrors "github.com/openedu/registrar-api/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error)
	ListByOrgs(ctx context.Context, orgKeys []string, page, size int) ([]models.Program, int, error)
	GetByKey(ctx context.Context, programKey string) (*models.Program, error)
	ListCourses(ctx context.Context, programKey string) ([]models.Course, error)
	FindCourse(ctx context.Context, programKey, courseID string) (*models.Course, error)
}

// ProgramService serves program and course metadata with org-scoped access
// control and a Redis-backed cache in front of the catalog tables.
type ProgramService struct {
	repo     programRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewProgramService constructs ProgramService.
func NewProgramService(repo programRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ProgramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &ProgramService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns programs visible to the caller, optionally filtered by org.
// Org staff requesting a foreign org get 403; without a filter they see only
// their own organizations' programs.
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter, claims *models.APIClaims) ([]models.Program, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if filter.Org != "" && !claims.HasOrg(filter.Org) {
		return nil, nil, appErrors.ErrForbidden
	}

	var (
		programs []models.Program
		total    int
		err      error
	)
	if filter.Org == "" && claims.Role != models.RoleAdmin {
		if len(claims.Orgs) == 0 {
			return []models.Program{}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 0}, nil
		}
		programs, total, err = s.repo.ListByOrgs(ctx, claims.Orgs, filter.Page, filter.PageSize)
	} else {
		programs, total, err = s.repo.List(ctx, filter)
	}
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return programs, pagination, nil
}

// Get returns a program by key, enforcing org access. Unknown keys are 404;
// programs outside the caller's orgs are 403.
func (s *ProgramService) Get(ctx context.Context, programKey string, claims *models.APIClaims) (*models.Program, error) {
	program, err := s.loadProgram(ctx, programKey)
	if err != nil {
		return nil, err
	}
	if !claims.HasOrg(program.OrgKey) {
		return nil, appErrors.ErrForbidden
	}
	return program, nil
}

// ListCourses returns the courses of a program visible to the caller.
func (s *ProgramService) ListCourses(ctx context.Context, programKey string, claims *models.APIClaims) ([]models.Course, error) {
	if _, err := s.Get(ctx, programKey, claims); err != nil {
		return nil, err
	}

	cacheKey := coursesCacheKey(programKey)
	var courses []models.Course
	if hit, _ := s.cache.Get(ctx, cacheKey, &courses); hit {
		return courses, nil
	}

	courses, err := s.repo.ListCourses(ctx, programKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	_ = s.cache.Set(ctx, cacheKey, courses, s.cacheTTL)
	return courses, nil
}

// ResolveCourse locates a course in a program by internal or external key,
// enforcing org access. Unknown courses are 404.
func (s *ProgramService) ResolveCourse(ctx context.Context, programKey, courseID string, claims *models.APIClaims) (*models.Course, error) {
	if _, err := s.Get(ctx, programKey, claims); err != nil {
		return nil, err
	}
	course, err := s.repo.FindCourse(ctx, programKey, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found in program")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
	}
	return course, nil
}

// Invalidate drops cached metadata for a program.
func (s *ProgramService) Invalidate(ctx context.Context, programKey string) {
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("program:%s*", programKey))
}

func (s *ProgramService) loadProgram(ctx context.Context, programKey string) (*models.Program, error) {
	cacheKey := programCacheKey(programKey)
	var cached models.Program
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	program, err := s.repo.GetByKey(ctx, programKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	_ = s.cache.Set(ctx, cacheKey, program, s.cacheTTL)
	return program, nil
}

func programCacheKey(programKey string) string {
	return fmt.Sprintf("program:%s", programKey)
}

func coursesCacheKey(programKey string) string {
	return fmt.Sprintf("program:%s:courses", programKey)
}
