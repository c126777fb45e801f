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

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) (bool, error)
	Delete(ctx context.Context, studentID string) (bool, error)
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a student by key.
func (s *StudentService) Get(ctx context.Context, studentID string) (*models.Student, error) {
	if err := validation.ID("studentId", studentID); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.EntityNotFound("student", studentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student under a generated key.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{FirstName: req.FirstName, LastName: req.LastName, Program: req.Program}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.StudentID))
	return student, nil
}

// Update replaces the mutable fields of a student.
func (s *StudentService) Update(ctx context.Context, studentID string, req dto.StudentRequest) (*models.Student, error) {
	if err := validation.ID("studentId", studentID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{StudentID: studentID, FirstName: req.FirstName, LastName: req.LastName, Program: req.Program}
	updated, err := s.repo.Update(ctx, student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if !updated {
		return nil, appErrors.EntityNotFound("student", studentID)
	}
	return student, nil
}

// Delete removes a student. Unknown keys are reported as not found.
func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if err := validation.ID("studentId", studentID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if !deleted {
		return appErrors.EntityNotFound("student", studentID)
	}
	return nil
}
