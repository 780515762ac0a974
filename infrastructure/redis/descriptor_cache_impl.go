package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
)

// galleryMarker flags a complete gallery snapshot. It shares the gallery
// TTL so the marker never outlives the entries it vouches for.
type galleryMarker struct {
	BuiltAt time.Time `json:"built_at"`
}

type DescriptorCacheImpl struct {
	entries *Cache[models.GalleryEntry]
	marker  *Cache[galleryMarker]
}

func NewDescriptorCache(client *RedisClient, ttl time.Duration) repositories.DescriptorCache {
	return &DescriptorCacheImpl{
		entries: NewCache[models.GalleryEntry](client, "gallery:person", ttl),
		marker:  NewCache[galleryMarker](client, "gallery:meta", ttl),
	}
}

func (c *DescriptorCacheImpl) GetGallery(ctx context.Context) (map[uuid.UUID]models.GalleryEntry, bool, error) {
	marker, err := c.marker.Get(ctx, "complete")
	if err != nil {
		return nil, false, err
	}
	if marker == nil {
		return nil, false, nil
	}

	raw, err := c.entries.GetAll(ctx)
	if err != nil {
		return nil, false, err
	}

	gallery := make(map[uuid.UUID]models.GalleryEntry, len(raw))
	for id, entry := range raw {
		personID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		gallery[personID] = *entry
	}
	return gallery, true, nil
}

func (c *DescriptorCacheImpl) PutGallery(ctx context.Context, gallery map[uuid.UUID]models.GalleryEntry) error {
	for personID, entry := range gallery {
		e := entry
		if err := c.entries.Set(ctx, personID.String(), &e); err != nil {
			return err
		}
	}
	return c.marker.Set(ctx, "complete", &galleryMarker{BuiltAt: time.Now()})
}

func (c *DescriptorCacheImpl) PutPerson(ctx context.Context, personID uuid.UUID, entry models.GalleryEntry) error {
	return c.entries.Set(ctx, personID.String(), &entry)
}

func (c *DescriptorCacheImpl) InvalidatePerson(ctx context.Context, personID uuid.UUID) error {
	return c.entries.Delete(ctx, personID.String())
}

func (c *DescriptorCacheImpl) Clear(ctx context.Context) error {
	if err := c.marker.Delete(ctx, "complete"); err != nil {
		return err
	}
	return c.entries.DeleteAll(ctx)
}
