package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type courseServiceMock struct {
	lastReq dto.CourseRequest
}

func (m *courseServiceMock) List(ctx context.Context) ([]models.Course, error) {
	return []models.Course{}, nil
}

func (m *courseServiceMock) Get(ctx context.Context, id string) (*models.Course, error) {
	return nil, appErrors.InvalidID("courseId")
}

func (m *courseServiceMock) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	m.lastReq = req
	return &models.Course{CourseID: "c", CourseName: req.CourseName, NumCredits: req.NumCredits}, nil
}

func (m *courseServiceMock) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	return &models.Course{CourseID: id, CourseName: req.CourseName}, nil
}

func (m *courseServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

func newCourseRouter(svc *courseServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewCourseHandler(svc).Register(r)
	return r
}

func TestCourseHandlerRoutes(t *testing.T) {
	svc := &courseServiceMock{}
	r := newCourseRouter(svc)

	w := serve(r, http.MethodPost, "/courses", `{"courseNumber":"420-N45-LA","courseName":"Final Project 1","numHours":60,"numCredits":2.5,"department":"CS"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.InDelta(t, 2.5, svc.lastReq.NumCredits, 0.0001)

	w = serve(r, http.MethodGet, "/courses/short", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid courseId, length must be 36 characters", decodeMessage(t, w))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPut, "/courses/c", `{"courseName":"x"}`).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/courses/c", "").Code)
}
