package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
)

type SessionCacheImpl struct {
	cache *Cache[models.SessionProjection]
}

func NewSessionCache(client *RedisClient, defaultTTL time.Duration) repositories.SessionCache {
	return &SessionCacheImpl{
		cache: NewCache[models.SessionProjection](client, "session", defaultTTL),
	}
}

func (c *SessionCacheImpl) Get(ctx context.Context, sessionID uuid.UUID) (*models.SessionProjection, error) {
	return c.cache.Get(ctx, sessionID.String())
}

func (c *SessionCacheImpl) Put(ctx context.Context, sessionID uuid.UUID, projection *models.SessionProjection, ttl time.Duration) error {
	return c.cache.SetWithTTL(ctx, sessionID.String(), projection, ttl)
}

func (c *SessionCacheImpl) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	return c.cache.Delete(ctx, sessionID.String())
}
