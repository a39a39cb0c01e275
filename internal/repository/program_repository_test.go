package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/openedu/registrar-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func programRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"program_key", "program_title", "program_url", "org_key"})
}

func TestProgramRepositoryListWithOrgFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProgramRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT program_key, program_title, program_url, org_key FROM programs WHERE org_key = $1")).
		WithArgs("stanford", 20, 0).
		WillReturnRows(programRows().AddRow("upskill-cert", "Upskill Certificate", "https://example.org/upskill", "stanford"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM programs WHERE org_key = $1")).
		WithArgs("stanford").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	programs, total, err := repo.List(context.Background(), models.ProgramFilter{Org: "stanford"})
	require.NoError(t, err)
	require.Len(t, programs, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "upskill-cert", programs[0].Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositoryListByOrgs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProgramRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT program_key, program_title, program_url, org_key FROM programs WHERE org_key = ANY($1)")).
		WillReturnRows(programRows().
			AddRow("upskill-cert", "Upskill Certificate", "https://example.org/upskill", "stanford").
			AddRow("data-cert", "Data Certificate", "https://example.org/data", "mit"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM programs WHERE org_key = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	programs, total, err := repo.ListByOrgs(context.Background(), []string{"stanford", "mit"}, 1, 20)
	require.NoError(t, err)
	require.Len(t, programs, 2)
	require.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositoryFindCourseByEitherKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProgramRepository(db)
	rows := sqlmock.NewRows([]string{"course_key", "external_course_key", "course_title", "course_url", "program_key"}).
		AddRow("course-v1:STAN+CS100", "CS100-ext", "Intro CS", "https://example.org/cs100", "upskill-cert")
	mock.ExpectQuery(regexp.QuoteMeta("(course_key = $2 OR external_course_key = $2)")).
		WithArgs("upskill-cert", "CS100-ext").
		WillReturnRows(rows)

	course, err := repo.FindCourse(context.Background(), "upskill-cert", "CS100-ext")
	require.NoError(t, err)
	require.Equal(t, "course-v1:STAN+CS100", course.Key)
	require.NoError(t, mock.ExpectationsWereMet())
}
