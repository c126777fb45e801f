package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/pkg/database"
)

const courseColumns = `id, course_id, course_number, course_name, num_hours, num_credits, department`

// CourseRepository manages persistence for course records.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns every course ordered by insertion.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCourseID fetches a course by identity key, returning sql.ErrNoRows when absent.
func (r *CourseRepository) FindByCourseID(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, "SELECT "+courseColumns+" FROM courses WHERE course_id = $1", courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.CourseID == "" {
		course.CourseID = uuid.NewString()
	}
	const query = `INSERT INTO courses (course_id, course_number, course_name, num_hours, num_credits, department)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		course.CourseID, course.CourseNumber, course.CourseName, course.NumHours, course.NumCredits, course.Department,
	).Scan(&course.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create course %s: %w", course.CourseID, database.ErrDuplicateKey)
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course and reports whether a row matched.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (bool, error) {
	const query = `UPDATE courses SET course_number = :course_number, course_name = :course_name,
        num_hours = :num_hours, num_credits = :num_credits, department = :department
        WHERE course_id = :course_id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return false, fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update course rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a course and reports whether a row matched.
func (r *CourseRepository) Delete(ctx context.Context, courseID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, courseID)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows: %w", err)
	}
	return affected > 0, nil
}
