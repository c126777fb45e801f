package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/models"
)

var courseRowColumns = []string{"id", "course_id", "course_number", "course_name", "num_hours", "num_credits", "department"}

func TestCourseRepositoryFindByCourseID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + courseColumns + " FROM courses WHERE course_id = $1")).
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow(1, courseID, "420-N45-LA", "Final Project 1", 60, 2.0, "Computer Science"))

	course, err := repo.FindByCourseID(context.Background(), courseID)
	require.NoError(t, err)
	assert.Equal(t, "Final Project 1", course.CourseName)
	assert.Equal(t, 60, course.NumHours)
	assert.InDelta(t, 2.0, course.NumCredits, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("FROM courses ORDER BY id").WillReturnRows(sqlmock.NewRows(courseRowColumns))

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)
}

func TestCourseRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "420-N45-LA", "Final Project 1", 60, 2.0, "Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("UPDATE courses SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM courses").WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{CourseNumber: "420-N45-LA", CourseName: "Final Project 1", NumHours: 60, NumCredits: 2.0, Department: "Computer Science"}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.Len(t, course.CourseID, 36)

	course.NumHours = 45
	updated, err := repo.Update(context.Background(), course)
	require.NoError(t, err)
	assert.True(t, updated)

	deleted, err := repo.Delete(context.Background(), course.CourseID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
