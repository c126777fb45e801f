package handler

import (
	"context"
	"iter"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
	"github.com/noah-isme/campus-records-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, params map[string]string) (iter.Seq2[models.Enrollment, error], error)
	Get(ctx context.Context, enrollmentID string) (*models.Enrollment, bool, error)
	Create(ctx context.Context, req dto.EnrollmentRequest) (*models.Enrollment, error)
	Update(ctx context.Context, enrollmentID string, req dto.EnrollmentRequest) (*models.Enrollment, error)
	Delete(ctx context.Context, enrollmentID string) error
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Register mounts the enrollment routes on rg.
func (h *EnrollmentHandler) Register(rg gin.IRouter) {
	rg.GET("/enrollments", h.List)
	rg.GET("/enrollments/:enrollmentId", h.Get)
	rg.POST("/enrollments", h.Create)
	rg.PUT("/enrollments/:enrollmentId", h.Update)
	rg.DELETE("/enrollments/:enrollmentId", h.Delete)
}

// List godoc
// @Summary List enrollments
// @Description Streams enrollments as a JSON array. Only one filter is applied; studentId takes precedence over courseId, which takes precedence over enrollmentYear.
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param enrollmentYear query int false "Filter by year"
// @Success 200 {array} models.Enrollment
// @Failure 422 {object} appErrors.Error
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	seq, err := h.enrollments.List(c.Request.Context(), queryParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Stream(c, seq)
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Failure 404 {object} appErrors.Error
// @Failure 422 {object} appErrors.Error
// @Router /enrollments/{enrollmentId} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id := c.Param("enrollmentId")
	enrollment, found, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Error(c, appErrors.EntityNotFound("enrollment", id))
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Create godoc
// @Summary Create enrollment
// @Description Looks up the referenced student and course, copies their names into the record and stores it under a new enrollmentId.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} appErrors.Error
// @Failure 404 {object} appErrors.Error
// @Failure 422 {object} appErrors.Error
// @Failure 503 {object} appErrors.Error
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.EnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Update godoc
// @Summary Replace enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Param payload body dto.EnrollmentRequest true "Enrollment payload"
// @Success 200 {object} models.Enrollment
// @Failure 404 {object} appErrors.Error
// @Failure 422 {object} appErrors.Error
// @Router /enrollments/{enrollmentId} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	var req dto.EnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Update(c.Request.Context(), c.Param("enrollmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Delete godoc
// @Summary Delete enrollment
// @Description Deleting an unknown enrollmentId succeeds.
// @Tags Enrollments
// @Param enrollmentId path string true "Enrollment ID"
// @Success 204
// @Failure 422 {object} appErrors.Error
// @Router /enrollments/{enrollmentId} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("enrollmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
