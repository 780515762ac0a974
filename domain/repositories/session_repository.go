package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error

	// GetActiveBySessionID returns the session only if it is active and
	// unexpired, nil otherwise. This is the authoritative validity check.
	GetActiveBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	GetActiveByPerson(ctx context.Context, personID uuid.UUID) ([]models.Session, error)

	// Rotate atomically replaces oldSessionID with newSessionID and extends
	// the expiry, matching only active rows. The returned count is the
	// number of rows updated; zero means the session was already rotated,
	// revoked or never existed.
	Rotate(ctx context.Context, oldSessionID, newSessionID uuid.UUID, expiresAt time.Time) (int64, error)

	Deactivate(ctx context.Context, sessionID uuid.UUID) error
	DeactivateAllByPerson(ctx context.Context, personID uuid.UUID) (int64, error)

	// DeleteExpired removes rows that are expired or inactive
	DeleteExpired(ctx context.Context) (int64, error)
}
