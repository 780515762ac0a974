package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	GetByEmail(ctx context.Context, email string) (*models.Person, error)
	List(ctx context.Context, offset, limit int) ([]models.Person, int64, error)
	Update(ctx context.Context, id uuid.UUID, person *models.Person) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error

	// IsActive is the cheap re-check used before accepting a match
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)

	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
