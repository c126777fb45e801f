package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/pkg/database"
)

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "first_name", "last_name", "program"}).
		AddRow(1, studentID, "Jane", "Doe", "Computer Science").
		AddRow(2, "student-2", "John", "Roe", "Nursing")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, first_name, last_name, program FROM students ORDER BY id")).
		WillReturnRows(rows)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, "Jane", students[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByStudentIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE student_id = $1")).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "first_name", "last_name", "program"}))

	_, err := repo.FindByStudentID(context.Background(), studentID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Jane", "Doe", "Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	student := &models.Student{FirstName: "Jane", LastName: "Doe", Program: "Computer Science"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Len(t, student.StudentID, 36)
	assert.Equal(t, int64(3), student.ID)

	mock.ExpectQuery("INSERT INTO students").WillReturnError(&pq.Error{Code: "23505"})
	err := repo.Create(context.Background(), &models.Student{StudentID: studentID})
	assert.ErrorIs(t, err, database.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE student_id = $1")).
		WithArgs(studentID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.Update(context.Background(), &models.Student{StudentID: studentID, FirstName: "Janet"})
	require.NoError(t, err)
	assert.True(t, updated)

	deleted, err := repo.Delete(context.Background(), studentID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
