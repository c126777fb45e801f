package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/internal/validation"
	"github.com/noah-isme/campus-records-api/pkg/database"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByCourseID(ctx context.Context, courseID string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) (bool, error)
	Delete(ctx context.Context, courseID string) (bool, error)
}

// CourseService handles course use-cases.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

func (s *CourseService) Get(ctx context.Context, courseID string) (*models.Course, error) {
	if err := validation.ID("courseId", courseID); err != nil {
		return nil, err
	}
	course, err := s.repo.FindByCourseID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.EntityNotFound("course", courseID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course under a generated key.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := courseFromRequest("", req)
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "course already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.CourseID))
	return course, nil
}

// Update replaces the mutable fields of a course.
func (s *CourseService) Update(ctx context.Context, courseID string, req dto.CourseRequest) (*models.Course, error) {
	if err := validation.ID("courseId", courseID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := courseFromRequest(courseID, req)
	updated, err := s.repo.Update(ctx, course)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	if !updated {
		return nil, appErrors.EntityNotFound("course", courseID)
	}
	return course, nil
}

// Delete removes a course. Unknown keys are reported as not found.
func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	if err := validation.ID("courseId", courseID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !deleted {
		return appErrors.EntityNotFound("course", courseID)
	}
	return nil
}

func courseFromRequest(courseID string, req dto.CourseRequest) *models.Course {
	return &models.Course{
		CourseID:     courseID,
		CourseNumber: req.CourseNumber,
		CourseName:   req.CourseName,
		NumHours:     req.NumHours,
		NumCredits:   req.NumCredits,
		Department:   req.Department,
	}
}
