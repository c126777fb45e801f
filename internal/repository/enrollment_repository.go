package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/pkg/database"
)

const enrollmentColumns = `id, enrollment_id, enrollment_year, semester, student_id, student_first_name, student_last_name, course_id, course_name, course_number`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Stream yields enrollments matching filter straight from the result set. Each
// iteration runs a fresh query, so the sequence can be ranged over repeatedly.
func (r *EnrollmentRepository) Stream(ctx context.Context, filter models.EnrollmentFilter) iter.Seq2[models.Enrollment, error] {
	query := "SELECT " + enrollmentColumns + " FROM enrollments"
	var args []interface{}
	switch {
	case filter.StudentID != "":
		query += " WHERE student_id = $1"
		args = append(args, filter.StudentID)
	case filter.CourseID != "":
		query += " WHERE course_id = $1"
		args = append(args, filter.CourseID)
	case filter.EnrollmentYear != nil:
		query += " WHERE enrollment_year = $1"
		args = append(args, *filter.EnrollmentYear)
	}
	query += " ORDER BY id"

	return func(yield func(models.Enrollment, error) bool) {
		rows, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(models.Enrollment{}, fmt.Errorf("list enrollments: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var enrollment models.Enrollment
			if err := rows.StructScan(&enrollment); err != nil {
				yield(models.Enrollment{}, fmt.Errorf("scan enrollment: %w", err))
				return
			}
			if !yield(enrollment, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Enrollment{}, fmt.Errorf("iterate enrollments: %w", err))
		}
	}
}

// FindByEnrollmentID returns an enrollment by its identity key. It returns
// sql.ErrNoRows when no record exists.
func (r *EnrollmentRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE enrollment_id = $1"
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, enrollmentID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create persists a new enrollment record, assigning an identity key when missing.
// A colliding key yields database.ErrDuplicateKey.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.EnrollmentID == "" {
		enrollment.EnrollmentID = uuid.NewString()
	}
	const query = `INSERT INTO enrollments (enrollment_id, enrollment_year, semester, student_id, student_first_name, student_last_name, course_id, course_name, course_number)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		enrollment.EnrollmentID,
		enrollment.EnrollmentYear,
		enrollment.Semester,
		enrollment.StudentID,
		enrollment.StudentFirstName,
		enrollment.StudentLastName,
		enrollment.CourseID,
		enrollment.CourseName,
		enrollment.CourseNumber,
	).Scan(&enrollment.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create enrollment %s: %w", enrollment.EnrollmentID, database.ErrDuplicateKey)
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update replaces every mutable column of the enrollment identified by its key.
// It reports false when no record matched.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	const query = `UPDATE enrollments SET enrollment_year = :enrollment_year, semester = :semester,
        student_id = :student_id, student_first_name = :student_first_name, student_last_name = :student_last_name,
        course_id = :course_id, course_name = :course_name, course_number = :course_number
        WHERE enrollment_id = :enrollment_id`
	res, err := r.db.NamedExecContext(ctx, query, enrollment)
	if err != nil {
		return false, fmt.Errorf("update enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the enrollment with the given key, reporting whether a row was removed.
func (r *EnrollmentRepository) Delete(ctx context.Context, enrollmentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE enrollment_id = $1`, enrollmentID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment rows: %w", err)
	}
	return affected > 0, nil
}
