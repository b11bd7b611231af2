// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

var _ usecase.InspectionRepository = (*CachingInspectionRepository)(nil)

// CachingInspectionRepository decorates an InspectionRepository with Redis caching
// of the recent-history listing. Writes invalidate every cached listing.
type CachingInspectionRepository struct {
	inner     usecase.InspectionRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingInspectionRepository decorates an InspectionRepository with Redis caching.
// If ttl is 0, it defaults to 30 seconds. If namespace is empty, it uses "inspections".
func NewCachingInspectionRepository(rdb *redis.Client, ttl time.Duration, inner usecase.InspectionRepository, namespace string) *CachingInspectionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if namespace == "" {
		namespace = "inspections"
	}
	return &CachingInspectionRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create persists the record and invalidates cached listings.
func (c *CachingInspectionRepository) Create(ctx context.Context, rec *entity.InspectionRecord) error {
	if err := c.inner.Create(ctx, rec); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix()+"*") // Best effort: stale entries expire with the TTL anyway
	return nil
}

// ListRecent returns recent records, checking cache first then falling back to the database.
func (c *CachingInspectionRepository) ListRecent(ctx context.Context, limit int) ([]entity.InspectionRecord, error) {
	if c.rdb == nil {
		return c.inner.ListRecent(ctx, limit)
	}

	key := c.cacheKey(limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.InspectionRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

func (c *CachingInspectionRepository) cacheKey(limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(), limit)
}

func (c *CachingInspectionRepository) cacheKeyPrefix() string {
	return safe(c.namespace) + ":recent:"
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingInspectionRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
