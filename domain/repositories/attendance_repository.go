package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

type AttendanceRepository interface {
	Create(ctx context.Context, event *models.AttendanceEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceEvent, error)

	// GetLastInRange returns the person's most recent event with
	// from <= Timestamp < to, or nil when there is none.
	GetLastInRange(ctx context.Context, personID uuid.UUID, from, to time.Time) (*models.AttendanceEvent, error)

	// GetByPerson lists a person's events newest first. Zero time bounds
	// mean unbounded.
	GetByPerson(ctx context.Context, personID uuid.UUID, from, to time.Time, offset, limit int) ([]models.AttendanceEvent, int64, error)

	// List lists events across all persons newest first (admin view)
	List(ctx context.Context, from, to time.Time, offset, limit int) ([]models.AttendanceEvent, int64, error)

	// UpdateType rewrites the event type and flags the row as corrected
	UpdateType(ctx context.Context, id uuid.UUID, newType models.EventType) error

	CountInRange(ctx context.Context, from, to time.Time) (int64, error)
}
