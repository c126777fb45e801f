package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

const testStudentID = "4b6f3c1e-2a57-4f0e-9b4c-7d8e9f0a1b2c"

type studentServiceMock struct {
	students  map[string]models.Student
	lastReq   dto.StudentRequest
	createErr error
}

func (m *studentServiceMock) List(ctx context.Context) ([]models.Student, error) {
	out := []models.Student{}
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, nil
}

func (m *studentServiceMock) Get(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, appErrors.EntityNotFound("student", id)
}

func (m *studentServiceMock) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	m.lastReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Student{StudentID: testStudentID, FirstName: req.FirstName, LastName: req.LastName, Program: req.Program}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if _, ok := m.students[id]; !ok {
		return nil, appErrors.EntityNotFound("student", id)
	}
	return &models.Student{StudentID: id, FirstName: req.FirstName}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return appErrors.EntityNotFound("student", id)
	}
	delete(m.students, id)
	return nil
}

func newStudentRouter(svc *studentServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewStudentHandler(svc).Register(r)
	return r
}

func TestStudentHandlerGet(t *testing.T) {
	svc := &studentServiceMock{students: map[string]models.Student{testStudentID: {StudentID: testStudentID, FirstName: "Jane", LastName: "Doe"}}}
	r := newStudentRouter(svc)

	w := serve(r, http.MethodGet, "/students/"+testStudentID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Jane", got.FirstName)

	delete(svc.students, testStudentID)
	w = serve(r, http.MethodGet, "/students/"+testStudentID, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No student with this studentId was found: "+testStudentID, decodeMessage(t, w))
}

func TestStudentHandlerCreate(t *testing.T) {
	svc := &studentServiceMock{}
	w := serve(newStudentRouter(svc), http.MethodPost, "/students", `{"firstName":"Jane","lastName":"Doe","program":"Computer Science"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Computer Science", svc.lastReq.Program)
	assert.Contains(t, w.Body.String(), `"studentId":"`+testStudentID+`"`)
}

func TestStudentHandlerDeleteMissing(t *testing.T) {
	svc := &studentServiceMock{students: map[string]models.Student{testStudentID: {StudentID: testStudentID}}}
	r := newStudentRouter(svc)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/students/"+testStudentID, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/students/"+testStudentID, "").Code)
}

func TestStudentHandlerListAndUpdate(t *testing.T) {
	svc := &studentServiceMock{students: map[string]models.Student{testStudentID: {StudentID: testStudentID}}}
	r := newStudentRouter(svc)

	w := serve(r, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = serve(r, http.MethodPut, "/students/"+testStudentID, `{"firstName":"Janet","lastName":"Doe","program":"CS"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Janet")
}
