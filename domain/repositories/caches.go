package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

// Cache ports. All of them are projections of durable state: a hit is a
// positive assertion, a miss falls through to the durable store, and
// callers treat cache errors as misses.

// DescriptorCache holds the matching gallery, one entry per enrolled person
// plus a completeness marker sharing the gallery TTL.
type DescriptorCache interface {
	// GetGallery returns the cached entries and whether the snapshot is
	// complete. An incomplete snapshot must be rebuilt before matching.
	GetGallery(ctx context.Context) (map[uuid.UUID]models.GalleryEntry, bool, error)

	// PutGallery overwrites per-person entries and refreshes the
	// completeness marker. Safe to call concurrently, last write wins.
	PutGallery(ctx context.Context, gallery map[uuid.UUID]models.GalleryEntry) error

	// PutPerson write-through for a single person after enrollment changes
	PutPerson(ctx context.Context, personID uuid.UUID, entry models.GalleryEntry) error

	InvalidatePerson(ctx context.Context, personID uuid.UUID) error
	Clear(ctx context.Context) error
}

// MarkerCache holds the recent-attendance marker per person.
type MarkerCache interface {
	// Get returns nil without error on a miss
	Get(ctx context.Context, personID uuid.UUID) (*models.RecentAttendanceMarker, error)
	Put(ctx context.Context, personID uuid.UUID, marker *models.RecentAttendanceMarker) error
	Invalidate(ctx context.Context, personID uuid.UUID) error
}

// SessionCache holds active-session projections keyed by the rotating
// session identifier.
type SessionCache interface {
	// Get returns nil without error on a miss
	Get(ctx context.Context, sessionID uuid.UUID) (*models.SessionProjection, error)

	// Put stores the projection with the given TTL. Callers cap the TTL at
	// the session expiry so a projection never outlives its session.
	Put(ctx context.Context, sessionID uuid.UUID, projection *models.SessionProjection, ttl time.Duration) error

	Invalidate(ctx context.Context, sessionID uuid.UUID) error
}
