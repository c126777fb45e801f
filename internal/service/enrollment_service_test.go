package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/campus-records-api/internal/dto"
	"github.com/noah-isme/campus-records-api/internal/models"
	"github.com/noah-isme/campus-records-api/pkg/database"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

const (
	testEnrollmentID = "9a1c7a4e-1d43-4a55-8f0b-0c6c1b1e2f3a"
	testStudentID    = "4b6f3c1e-2a57-4f0e-9b4c-7d8e9f0a1b2c"
	testCourseID     = "7e2d1c0b-3f4a-4b5c-8d6e-9f0a1b2c3d4e"
)

type mockEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]models.Enrollment
	lastFilter  models.EnrollmentFilter
	createErr   error
	streamErr   error
	calls       int
	creates     int
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{}}
}

func (m *mockEnrollmentRepo) touch() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockEnrollmentRepo) Stream(ctx context.Context, filter models.EnrollmentFilter) iter.Seq2[models.Enrollment, error] {
	m.touch()
	m.lastFilter = filter
	return func(yield func(models.Enrollment, error) bool) {
		if m.streamErr != nil {
			yield(models.Enrollment{}, m.streamErr)
			return
		}
		for _, e := range m.enrollments {
			if filter.StudentID != "" && e.StudentID != filter.StudentID {
				continue
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (m *mockEnrollmentRepo) FindByEnrollmentID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.touch()
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.touch()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	enrollment.ID = int64(len(m.enrollments) + 1)
	m.enrollments[enrollment.EnrollmentID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	m.touch()
	if _, ok := m.enrollments[enrollment.EnrollmentID]; !ok {
		return false, nil
	}
	m.enrollments[enrollment.EnrollmentID] = *enrollment
	return true, nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.touch()
	if _, ok := m.enrollments[id]; !ok {
		return false, nil
	}
	delete(m.enrollments, id)
	return true, nil
}

type mockStudentFetcher struct {
	student *models.Student
	err     error
	calls   atomic.Int32
}

func (m *mockStudentFetcher) FetchByKey(ctx context.Context, id string) (*models.Student, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	s := *m.student
	s.StudentID = id
	return &s, nil
}

type mockCourseFetcher struct {
	course *models.Course
	err    error
	block  bool
	seen   chan error
	calls  atomic.Int32
}

func (m *mockCourseFetcher) FetchByKey(ctx context.Context, id string) (*models.Course, error) {
	m.calls.Add(1)
	if m.block {
		<-ctx.Done()
		if m.seen != nil {
			m.seen <- ctx.Err()
		}
		return nil, appErrors.UpstreamUnavailable("course", ctx.Err())
	}
	if m.err != nil {
		return nil, m.err
	}
	c := *m.course
	c.CourseID = id
	return &c, nil
}

type enrollmentFixture struct {
	repo     *mockEnrollmentRepo
	students *mockStudentFetcher
	courses  *mockCourseFetcher
	svc      *EnrollmentService
}

func newEnrollmentFixture() *enrollmentFixture {
	f := &enrollmentFixture{
		repo:     newMockEnrollmentRepo(),
		students: &mockStudentFetcher{student: &models.Student{FirstName: "Jane", LastName: "Doe", Program: "Computer Science"}},
		courses:  &mockCourseFetcher{course: &models.Course{CourseName: "Intro to Systems", CourseNumber: "420-N45"}},
	}
	f.svc = NewEnrollmentService(f.repo, f.students, f.courses, nil, nil, nil)
	return f
}

func (f *enrollmentFixture) downstreamCalls() int32 {
	return f.students.calls.Load() + f.courses.calls.Load()
}

func validRequest() dto.EnrollmentRequest {
	return dto.EnrollmentRequest{
		EnrollmentYear: 2024,
		Semester:       models.SemesterFall,
		StudentID:      testStudentID,
		CourseID:       testCourseID,
	}
}

func TestEnrollmentServiceCreateMergesSnapshots(t *testing.T) {
	f := newEnrollmentFixture()

	enrollment, err := f.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Len(t, enrollment.EnrollmentID, 36)
	assert.Equal(t, 2024, enrollment.EnrollmentYear)
	assert.Equal(t, models.SemesterFall, enrollment.Semester)
	assert.Equal(t, testStudentID, enrollment.StudentID)
	assert.Equal(t, "Jane", enrollment.StudentFirstName)
	assert.Equal(t, "Doe", enrollment.StudentLastName)
	assert.Equal(t, testCourseID, enrollment.CourseID)
	assert.Equal(t, "Intro to Systems", enrollment.CourseName)
	assert.Equal(t, "420-N45", enrollment.CourseNumber)
	assert.Equal(t, 1, f.repo.creates)
}

func TestEnrollmentServiceCreateGeneratesDistinctKeys(t *testing.T) {
	f := newEnrollmentFixture()

	first, err := f.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.EnrollmentID, second.EnrollmentID)
}

func TestEnrollmentServiceCreateRoundTrip(t *testing.T) {
	f := newEnrollmentFixture()

	created, err := f.svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	got, found, err := f.svc.Get(context.Background(), created.EnrollmentID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, *created, *got)
}

func TestEnrollmentServiceCreateDownstreamFailures(t *testing.T) {
	tests := []struct {
		name        string
		studentErr  error
		courseErr   error
		wantErr     *appErrors.Error
		wantMessage string
	}{
		{
			name:        "student not found",
			studentErr:  appErrors.UpstreamNotFound("Student", testStudentID),
			wantErr:     appErrors.ErrNotFound,
			wantMessage: "StudentId not found: " + testStudentID,
		},
		{
			name:        "course not found",
			courseErr:   appErrors.UpstreamNotFound("Course", testCourseID),
			wantErr:     appErrors.ErrNotFound,
			wantMessage: "CourseId not found: " + testCourseID,
		},
		{
			name:        "course rejects request",
			courseErr:   appErrors.Clone(appErrors.ErrMalformedUpstream, ""),
			wantErr:     appErrors.ErrMalformedUpstream,
			wantMessage: "Something went wrong",
		},
		{
			name:        "student service down",
			studentErr:  appErrors.UpstreamUnavailable("student", errors.New("connection refused")),
			wantErr:     appErrors.ErrUpstreamUnavailable,
			wantMessage: "student service unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newEnrollmentFixture()
			f.students.err = tc.studentErr
			f.courses.err = tc.courseErr

			_, err := f.svc.Create(context.Background(), validRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)

			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.wantMessage, appErr.Message)
			assert.Zero(t, f.repo.creates, "nothing may be persisted when a reference fails")
			assert.Empty(t, f.repo.enrollments)
		})
	}
}

func TestEnrollmentServiceCreateBothFail(t *testing.T) {
	f := newEnrollmentFixture()
	f.students.err = appErrors.UpstreamNotFound("Student", testStudentID)
	f.courses.err = appErrors.UpstreamNotFound("Course", testCourseID)

	_, err := f.svc.Create(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "not found: ")
	assert.Zero(t, f.repo.creates)
}

func TestEnrollmentServiceCreateCancelsPendingFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newEnrollmentFixture()
	f.students.err = appErrors.UpstreamNotFound("Student", testStudentID)
	f.courses.block = true
	f.courses.seen = make(chan error, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Create(context.Background(), validRequest())
		done <- err
	}()

	select {
	case err := <-done:
		assert.Equal(t, "StudentId not found: "+testStudentID, err.Error())
	case <-time.After(2 * time.Second):
		t.Fatal("create did not return after the student fetch failed")
	}
	assert.ErrorIs(t, <-f.courses.seen, context.Canceled)
	assert.Zero(t, f.repo.creates)
}

func TestEnrollmentServiceCreateConflict(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.createErr = errors.Join(errors.New("insert"), database.ErrDuplicateKey)

	_, err := f.svc.Create(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestEnrollmentServiceCreateInvalidPayload(t *testing.T) {
	f := newEnrollmentFixture()
	req := validRequest()
	req.Semester = "WINTER"

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.downstreamCalls())
}

func TestEnrollmentServiceRejectsBadKeyLengths(t *testing.T) {
	badKeys := []string{"", "invalidId", strings.Repeat("a", 35), strings.Repeat("a", 37), testStudentID + " "}

	for _, key := range badKeys {
		t.Run(fmt.Sprintf("len=%d", len(key)), func(t *testing.T) {
			f := newEnrollmentFixture()
			ctx := context.Background()

			_, _, err := f.svc.Get(ctx, key)
			assertInvalidID(t, err, "enrollmentId")

			assertInvalidID(t, f.svc.Delete(ctx, key), "enrollmentId")

			_, err = f.svc.Update(ctx, key, validRequest())
			assertInvalidID(t, err, "enrollmentId")

			req := validRequest()
			req.StudentID = key
			_, err = f.svc.Create(ctx, req)
			assertInvalidID(t, err, "studentId")

			req = validRequest()
			req.CourseID = key
			_, err = f.svc.Create(ctx, req)
			assertInvalidID(t, err, "courseId")

			assert.Zero(t, f.repo.calls, "store must not be touched")
			assert.Zero(t, f.downstreamCalls(), "downstream must not be called")
		})
	}
}

func assertInvalidID(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	assert.Equal(t, "Invalid "+field+", length must be 36 characters", err.Error())
}

func TestEnrollmentServiceGetInvalidScenario(t *testing.T) {
	f := newEnrollmentFixture()

	_, _, err := f.svc.Get(context.Background(), "invalidId")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length must be 36 characters")
	assert.Zero(t, f.repo.calls)
}

func TestEnrollmentServiceGetAbsent(t *testing.T) {
	f := newEnrollmentFixture()

	enrollment, found, err := f.svc.Get(context.Background(), testEnrollmentID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, enrollment)
}

func TestEnrollmentServiceGetUsesCache(t *testing.T) {
	f := newEnrollmentFixture()
	cacheRepo := newFakeEnrollmentCache()
	f.svc = NewEnrollmentService(f.repo, f.students, f.courses, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil)
	f.repo.enrollments[testEnrollmentID] = models.Enrollment{EnrollmentID: testEnrollmentID, CourseName: "Databases"}

	_, found, err := f.svc.Get(context.Background(), testEnrollmentID)
	require.NoError(t, err)
	require.True(t, found)
	_, found, err = f.svc.Get(context.Background(), testEnrollmentID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, f.repo.calls, "second read is served from cache")

	require.NoError(t, f.svc.Delete(context.Background(), testEnrollmentID))
	_, found, err = f.svc.Get(context.Background(), testEnrollmentID)
	require.NoError(t, err)
	assert.False(t, found)
}

// pausingEnrollmentRepo holds the first FindByEnrollmentID after the store read
// until release is closed.
type pausingEnrollmentRepo struct {
	*mockEnrollmentRepo
	paused  atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingEnrollmentRepo) FindByEnrollmentID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, err := p.mockEnrollmentRepo.FindByEnrollmentID(ctx, id)
	if p.paused.CompareAndSwap(false, true) {
		close(p.loaded)
		<-p.release
	}
	return e, err
}

func TestEnrollmentServiceGetFillRacingWrite(t *testing.T) {
	tests := []struct {
		name      string
		write     func(ctx context.Context, svc *EnrollmentService) error
		wantFound bool
	}{
		{
			name: "delete",
			write: func(ctx context.Context, svc *EnrollmentService) error {
				return svc.Delete(ctx, testEnrollmentID)
			},
		},
		{
			name: "update",
			write: func(ctx context.Context, svc *EnrollmentService) error {
				_, err := svc.Update(ctx, testEnrollmentID, validRequest())
				return err
			},
			wantFound: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newEnrollmentFixture()
			f.repo.enrollments[testEnrollmentID] = models.Enrollment{ID: 1, EnrollmentID: testEnrollmentID, CourseName: "Databases"}
			repo := &pausingEnrollmentRepo{mockEnrollmentRepo: f.repo, loaded: make(chan struct{}), release: make(chan struct{})}
			svc := NewEnrollmentService(repo, f.students, f.courses, NewCacheService(newFakeEnrollmentCache(), nil, time.Minute, nil, true), nil, nil)

			done := make(chan error, 1)
			go func() {
				_, _, err := svc.Get(ctx, testEnrollmentID)
				done <- err
			}()

			<-repo.loaded
			require.NoError(t, tc.write(ctx, svc))
			close(repo.release)
			require.NoError(t, <-done)

			got, found, err := svc.Get(ctx, testEnrollmentID)
			require.NoError(t, err)
			require.Equal(t, tc.wantFound, found)
			if found {
				assert.Equal(t, "Intro to Systems", got.CourseName, "replaced record is served, not the one read before the write")
			}
		})
	}
}

func TestEnrollmentServiceDeleteIsIdempotent(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments[testEnrollmentID] = models.Enrollment{EnrollmentID: testEnrollmentID}

	require.NoError(t, f.svc.Delete(context.Background(), testEnrollmentID))
	require.NoError(t, f.svc.Delete(context.Background(), testEnrollmentID))
	assert.Empty(t, f.repo.enrollments)
}

func TestEnrollmentServiceUpdate(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments[testEnrollmentID] = models.Enrollment{ID: 7, EnrollmentID: testEnrollmentID, StudentFirstName: "Old"}

	req := validRequest()
	req.Semester = models.SemesterSummer
	updated, err := f.svc.Update(context.Background(), testEnrollmentID, req)
	require.NoError(t, err)

	assert.Equal(t, testEnrollmentID, updated.EnrollmentID)
	assert.Equal(t, int64(7), updated.ID)
	assert.Equal(t, models.SemesterSummer, updated.Semester)
	assert.Equal(t, "Jane", updated.StudentFirstName)
	assert.Equal(t, int32(1), f.students.calls.Load())
	assert.Equal(t, int32(1), f.courses.calls.Load())
}

func TestEnrollmentServiceUpdateMissing(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.Update(context.Background(), testEnrollmentID, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "No enrollment with this enrollmentId was found: "+testEnrollmentID, err.Error())
	assert.Zero(t, f.downstreamCalls())
}

func TestEnrollmentServiceListFilterPrecedence(t *testing.T) {
	year := 2023
	tests := []struct {
		name   string
		params map[string]string
		want   models.EnrollmentFilter
	}{
		{name: "none", params: nil, want: models.EnrollmentFilter{}},
		{name: "student", params: map[string]string{"studentId": "s", "courseId": "c", "enrollmentYear": "2023"}, want: models.EnrollmentFilter{StudentID: "s"}},
		{name: "course", params: map[string]string{"courseId": "c", "enrollmentYear": "2023"}, want: models.EnrollmentFilter{CourseID: "c"}},
		{name: "year", params: map[string]string{"enrollmentYear": "2023", "semester": "FALL"}, want: models.EnrollmentFilter{EnrollmentYear: &year}},
		{name: "blank values ignored", params: map[string]string{"studentId": " ", "courseId": "c"}, want: models.EnrollmentFilter{CourseID: "c"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newEnrollmentFixture()
			_, err := f.svc.List(context.Background(), tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.repo.lastFilter)
		})
	}
}

func TestEnrollmentServiceListRejectsBadYear(t *testing.T) {
	f := newEnrollmentFixture()

	_, err := f.svc.List(context.Background(), map[string]string{"enrollmentYear": "last"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	assert.Zero(t, f.repo.calls)
}

func TestEnrollmentServiceListStreams(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.enrollments["a"] = models.Enrollment{EnrollmentID: "a", StudentID: testStudentID}
	f.repo.enrollments["b"] = models.Enrollment{EnrollmentID: "b", StudentID: "other"}

	seq, err := f.svc.List(context.Background(), map[string]string{"studentId": testStudentID})
	require.NoError(t, err)

	var ids []string
	for e, err := range seq {
		require.NoError(t, err)
		ids = append(ids, e.EnrollmentID)
	}
	assert.Equal(t, []string{"a"}, ids)
}

func TestEnrollmentServiceListWrapsStoreError(t *testing.T) {
	f := newEnrollmentFixture()
	f.repo.streamErr = errors.New("connection reset")

	seq, err := f.svc.List(context.Background(), nil)
	require.NoError(t, err)
	for _, err := range seq {
		require.Error(t, err)
		assert.ErrorIs(t, err, appErrors.ErrInternal)
	}
}
