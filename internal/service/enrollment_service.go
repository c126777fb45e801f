package service

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/internal/validation"
	"github.com/noah-isme/campus-records-api/pkg/database"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

const tracerName = "github.com/noah-isme/campus-records-api/internal/service"

// Recognised list filter keys, in the order they take precedence.
const (
	FilterStudentID      = "studentId"
	FilterCourseID       = "courseId"
	FilterEnrollmentYear = "enrollmentYear"
)

type enrollmentRepository interface {
	Stream(ctx context.Context, filter models.EnrollmentFilter) iter.Seq2[models.Enrollment, error]
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	Delete(ctx context.Context, enrollmentID string) (bool, error)
}

type studentFetcher interface {
	FetchByKey(ctx context.Context, studentID string) (*models.Student, error)
}

type courseFetcher interface {
	FetchByKey(ctx context.Context, courseID string) (*models.Course, error)
}

// EnrollmentService owns enrollment records. It is the only writer of the
// enrollment store and the only consumer of the student and course clients.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentFetcher
	courses   courseFetcher
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	tracer    trace.Tracer
	newID     func() string
}

// NewEnrollmentService constructs EnrollmentService. cache may be nil.
func NewEnrollmentService(repo enrollmentRepository, students studentFetcher, courses courseFetcher, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		students:  students,
		courses:   courses,
		cache:     cache,
		validator: validate,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		newID:     uuid.NewString,
	}
}

// List returns a lazy sequence of enrollments narrowed by at most one filter.
// studentId wins over courseId, which wins over enrollmentYear; other keys are
// ignored. Each range over the result re-queries the store.
func (s *EnrollmentService) List(ctx context.Context, params map[string]string) (iter.Seq2[models.Enrollment, error], error) {
	filter, err := parseEnrollmentFilter(params)
	if err != nil {
		return nil, err
	}
	stream := s.repo.Stream(ctx, filter)
	return func(yield func(models.Enrollment, error) bool) {
		for enrollment, err := range stream {
			if err != nil {
				yield(models.Enrollment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments"))
				return
			}
			if !yield(enrollment, nil) {
				return
			}
		}
	}, nil
}

func parseEnrollmentFilter(params map[string]string) (models.EnrollmentFilter, error) {
	if v := strings.TrimSpace(params[FilterStudentID]); v != "" {
		return models.EnrollmentFilter{StudentID: v}, nil
	}
	if v := strings.TrimSpace(params[FilterCourseID]); v != "" {
		return models.EnrollmentFilter{CourseID: v}, nil
	}
	if v := strings.TrimSpace(params[FilterEnrollmentYear]); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return models.EnrollmentFilter{}, appErrors.Clone(appErrors.ErrInvalidInput, "Invalid enrollmentYear, must be an integer")
		}
		return models.EnrollmentFilter{EnrollmentYear: &year}, nil
	}
	return models.EnrollmentFilter{}, nil
}

// Get looks up an enrollment. found is false when the key is well formed but
// unknown; deciding whether that is an error is left to the caller.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID string) (*models.Enrollment, bool, error) {
	if err := validation.ID("enrollmentId", enrollmentID); err != nil {
		return nil, false, err
	}
	if cached, hit := s.cache.GetEnrollment(ctx, enrollmentID); hit {
		return cached, true, nil
	}
	enrollment, err := s.repo.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	s.cache.SetEnrollment(ctx, enrollment)
	return enrollment, true, nil
}

// Create validates req, fetches the referenced student and course concurrently
// and persists the merged record under a fresh key. Nothing is written unless
// both fetches succeed.
func (s *EnrollmentService) Create(ctx context.Context, req dto.EnrollmentRequest) (_ *models.Enrollment, err error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentService.Create")
	defer func() { endSpan(span, err) }()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	rc, err := s.resolve(ctx, newEnrollmentContext(s.newID(), req))
	if err != nil {
		return nil, err
	}

	enrollment := rc.build()
	span.SetAttributes(attribute.String("enrollment.id", enrollment.EnrollmentID))
	if err := s.repo.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "enrollment already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.EnrollmentID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("course_id", enrollment.CourseID),
	)
	return &enrollment, nil
}

// Update replaces an existing enrollment. The student and course snapshots are
// fetched again, so a replace also refreshes names.
func (s *EnrollmentService) Update(ctx context.Context, enrollmentID string, req dto.EnrollmentRequest) (_ *models.Enrollment, err error) {
	ctx, span := s.tracer.Start(ctx, "EnrollmentService.Update", trace.WithAttributes(attribute.String("enrollment.id", enrollmentID)))
	defer func() { endSpan(span, err) }()

	if err := validation.ID("enrollmentId", enrollmentID); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.EntityNotFound("enrollment", enrollmentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	rc, err := s.resolve(ctx, newEnrollmentContext(enrollmentID, req))
	if err != nil {
		return nil, err
	}

	enrollment := rc.build()
	enrollment.ID = existing.ID
	updated, err := s.repo.Update(ctx, &enrollment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	s.cache.Invalidate(ctx, enrollmentID)
	if !updated {
		return nil, appErrors.EntityNotFound("enrollment", enrollmentID)
	}
	return &enrollment, nil
}

// Delete removes an enrollment. Deleting an unknown key succeeds.
func (s *EnrollmentService) Delete(ctx context.Context, enrollmentID string) error {
	if err := validation.ID("enrollmentId", enrollmentID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, enrollmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.cache.Invalidate(ctx, enrollmentID)
	if !deleted {
		s.logger.Debug("delete of unknown enrollment ignored", zap.String("enrollment_id", enrollmentID))
	}
	return nil
}

// validateRequest checks key lengths before the payload so a malformed key is
// always reported as invalid input.
func (s *EnrollmentService) validateRequest(req dto.EnrollmentRequest) error {
	if err := validation.ID("studentId", req.StudentID); err != nil {
		return err
	}
	if err := validation.ID("courseId", req.CourseID); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	return nil
}

// resolve fetches the student and course in parallel. The first failure
// cancels the other call and is returned unchanged.
func (s *EnrollmentService) resolve(ctx context.Context, rc enrollmentContext) (enrollmentContext, error) {
	var (
		student *models.Student
		course  *models.Course
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := s.students.FetchByKey(gctx, rc.request.StudentID)
		if err != nil {
			return err
		}
		student = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := s.courses.FetchByKey(gctx, rc.request.CourseID)
		if err != nil {
			return err
		}
		course = fetched
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Info("enrollment references could not be resolved",
			zap.String("student_id", rc.request.StudentID),
			zap.String("course_id", rc.request.CourseID),
			zap.Error(err),
		)
		return rc, err
	}

	rc = rc.withStudent(student).withCourse(course)
	if !rc.ready() {
		return rc, appErrors.Clone(appErrors.ErrInternal, "enrollment references resolved empty")
	}
	return rc, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
