package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
)

type MarkerCacheImpl struct {
	cache *Cache[models.RecentAttendanceMarker]
}

func NewMarkerCache(client *RedisClient, ttl time.Duration) repositories.MarkerCache {
	return &MarkerCacheImpl{
		cache: NewCache[models.RecentAttendanceMarker](client, "attendance:last", ttl),
	}
}

func (c *MarkerCacheImpl) Get(ctx context.Context, personID uuid.UUID) (*models.RecentAttendanceMarker, error) {
	return c.cache.Get(ctx, personID.String())
}

func (c *MarkerCacheImpl) Put(ctx context.Context, personID uuid.UUID, marker *models.RecentAttendanceMarker) error {
	return c.cache.Set(ctx, personID.String(), marker)
}

func (c *MarkerCacheImpl) Invalidate(ctx context.Context, personID uuid.UUID) error {
	return c.cache.Delete(ctx, personID.String())
}
