package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type fakeEnrollmentCache struct {
	mu         sync.Mutex
	items      map[string]models.Enrollment
	tombstones map[string]bool
	getErr     error
	lastTTL    time.Duration
	tombstoned int
}

func newFakeEnrollmentCache() *fakeEnrollmentCache {
	return &fakeEnrollmentCache{items: map[string]models.Enrollment{}, tombstones: map[string]bool{}}
}

func (f *fakeEnrollmentCache) GetEnrollment(_ context.Context, id string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.items[id]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return &e, nil
}

func (f *fakeEnrollmentCache) SetEnrollment(_ context.Context, e *models.Enrollment, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[e.EnrollmentID]; ok || f.tombstones[e.EnrollmentID] {
		return false, nil
	}
	f.items[e.EnrollmentID] = *e
	f.lastTTL = ttl
	return true, nil
}

func (f *fakeEnrollmentCache) TombstoneEnrollment(_ context.Context, id string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tombstoned++
	delete(f.items, id)
	f.tombstones[id] = true
	f.lastTTL = ttl
	return nil
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newFakeEnrollmentCache()
	svc := NewCacheService(repo, nil, 0, nil, false)

	svc.SetEnrollment(context.Background(), &models.Enrollment{EnrollmentID: "a"})
	_, hit := svc.GetEnrollment(context.Background(), "a")
	svc.Invalidate(context.Background(), "a")

	assert.False(t, svc.Enabled())
	assert.False(t, hit)
	assert.Empty(t, repo.items)
	assert.Zero(t, repo.tombstoned)
}

func TestCacheServiceReadThroughAndInvalidate(t *testing.T) {
	repo := newFakeEnrollmentCache()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	_, hit := svc.GetEnrollment(ctx, "a")
	assert.False(t, hit)

	svc.SetEnrollment(ctx, &models.Enrollment{EnrollmentID: "a", CourseName: "Databases"})
	assert.Equal(t, time.Minute, repo.lastTTL)

	cached, hit := svc.GetEnrollment(ctx, "a")
	require.True(t, hit)
	assert.Equal(t, "Databases", cached.CourseName)

	svc.Invalidate(ctx, "a")
	_, hit = svc.GetEnrollment(ctx, "a")
	assert.False(t, hit)
	assert.InDelta(t, 1.0/3.0, testutil.ToFloat64(metrics.cacheHitRatio), 0.0001)
}

func TestCacheServiceFillNeverReplacesTombstone(t *testing.T) {
	repo := newFakeEnrollmentCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	svc.SetEnrollment(ctx, &models.Enrollment{EnrollmentID: "a", CourseName: "Databases"})
	svc.SetEnrollment(ctx, &models.Enrollment{EnrollmentID: "a", CourseName: "Networks"})
	cached, hit := svc.GetEnrollment(ctx, "a")
	require.True(t, hit)
	assert.Equal(t, "Databases", cached.CourseName, "fill does not overwrite a live entry")

	svc.Invalidate(ctx, "a")
	assert.Equal(t, time.Minute, repo.lastTTL)

	svc.SetEnrollment(ctx, &models.Enrollment{EnrollmentID: "a", CourseName: "Databases"})
	_, hit = svc.GetEnrollment(ctx, "a")
	assert.False(t, hit)
}

func TestCacheServiceSwallowsBackendErrors(t *testing.T) {
	repo := newFakeEnrollmentCache()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	_, hit := svc.GetEnrollment(context.Background(), "a")
	assert.False(t, hit)
}
