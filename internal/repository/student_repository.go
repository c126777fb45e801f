package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/pkg/database"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student ordered by insertion.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, student_id, first_name, last_name, program FROM students ORDER BY id`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByStudentID fetches a student by identity key, returning sql.ErrNoRows when absent.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	const query = `SELECT id, student_id, first_name, last_name, program FROM students WHERE student_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.StudentID == "" {
		student.StudentID = uuid.NewString()
	}
	const query = `INSERT INTO students (student_id, first_name, last_name, program) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query, student.StudentID, student.FirstName, student.LastName, student.Program).Scan(&student.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create student %s: %w", student.StudentID, database.ErrDuplicateKey)
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student and reports whether a row matched.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (bool, error) {
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, program = :program WHERE student_id = :student_id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update student rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a student and reports whether a row matched.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student rows: %w", err)
	}
	return affected > 0, nil
}
