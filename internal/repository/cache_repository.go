package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

const (
	enrollmentKeyPrefix = "enrollments:"
	tombstone           = "-"
)

// CacheRepository stores enrollment records in Redis as JSON. A nil client
// turns every read into a miss and every write into a no-op.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// EnrollmentKey returns the cache key for an enrollment identity key.
func EnrollmentKey(enrollmentID string) string {
	return enrollmentKeyPrefix + enrollmentID
}

// Enabled reports whether a Redis client is configured.
func (r *CacheRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// GetEnrollment returns the cached record or appErrors.ErrCacheMiss.
func (r *CacheRepository) GetEnrollment(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.get(ctx, EnrollmentKey(enrollmentID), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// SetEnrollment fills the cache for a record only when its key is empty; an
// existing entry or tombstone is left in place. It reports whether the record
// was stored.
func (r *CacheRepository) SetEnrollment(ctx context.Context, enrollment *models.Enrollment, ttl time.Duration) (bool, error) {
	return r.setNX(ctx, EnrollmentKey(enrollment.EnrollmentID), enrollment, ttl)
}

// TombstoneEnrollment replaces whatever is cached for enrollmentID with a
// tombstone that lives for ttl. Reads treat the tombstone as a miss, and a
// read-through fill that loaded the record before the write cannot replace it.
func (r *CacheRepository) TombstoneEnrollment(ctx context.Context, enrollmentID string, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	key := EnrollmentKey(enrollmentID)
	if err := r.client.Set(ctx, key, tombstone, ttl).Err(); err != nil {
		return fmt.Errorf("redis tombstone %s: %w", key, err)
	}
	return nil
}

func (r *CacheRepository) get(ctx context.Context, key string, dest interface{}) error {
	if !r.Enabled() {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if string(raw) == tombstone {
		return appErrors.ErrCacheMiss
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return appErrors.ErrCacheMiss
	}

	return nil
}

func (r *CacheRepository) setNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	stored, err := r.client.SetNX(ctx, key, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}

	return stored, nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
