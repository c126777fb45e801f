package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

// EnrollmentCacheRepository abstracts storage for cached enrollment records.
type EnrollmentCacheRepository interface {
	GetEnrollment(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	SetEnrollment(ctx context.Context, enrollment *models.Enrollment, ttl time.Duration) (bool, error)
	TombstoneEnrollment(ctx context.Context, enrollmentID string, ttl time.Duration) error
}

// CacheService wraps the enrollment cache with metrics and a default TTL.
// Cache failures are logged and never surface to callers.
type CacheService struct {
	repo       EnrollmentCacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo EnrollmentCacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetEnrollment returns a cached record and true on a hit.
func (s *CacheService) GetEnrollment(ctx context.Context, enrollmentID string) (*models.Enrollment, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	enrollment, err := s.repo.GetEnrollment(ctx, enrollmentID)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
		return nil, false
	}
	return enrollment, true
}

// SetEnrollment fills the cache after a store read, using the default TTL. The
// fill never replaces an existing entry, so a record read before a concurrent
// Invalidate cannot overwrite its tombstone.
func (s *CacheService) SetEnrollment(ctx context.Context, enrollment *models.Enrollment) {
	if !s.Enabled() || enrollment == nil {
		return
	}
	start := time.Now()
	stored, err := s.repo.SetEnrollment(ctx, enrollment, s.defaultTTL)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return
	}
	if !stored {
		s.logger.Debug("cache fill skipped", zap.String("enrollment_id", enrollment.EnrollmentID))
	}
}

// Invalidate tombstones the record for enrollmentID for one TTL. Call it after
// the store write.
func (s *CacheService) Invalidate(ctx context.Context, enrollmentID string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.TombstoneEnrollment(ctx, enrollmentID, s.defaultTTL); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}
