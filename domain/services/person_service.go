package services

import (
	"context"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

// FaceSample is one enrollment image.
type FaceSample struct {
	ImageData []byte
	MimeType  string
}

// RegisterPersonInput carries everything needed to enroll a new person.
type RegisterPersonInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Samples  []FaceSample
}

// PersonService manages the enrolled population.
type PersonService interface {
	// Register creates the person and enrolls one descriptor per sample
	Register(ctx context.Context, actorID uuid.UUID, input RegisterPersonInput) (*models.Person, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Person, error)
	List(ctx context.Context, page, limit int) ([]models.Person, int64, error)

	// AddDescriptors enrolls additional samples for an existing person and
	// returns how many descriptors were added
	AddDescriptors(ctx context.Context, actorID, personID uuid.UUID, samples []FaceSample) (int, error)

	// ClearDescriptors removes all of a person's descriptors
	ClearDescriptors(ctx context.Context, actorID, personID uuid.UUID) (int64, error)

	// SetActive toggles matching eligibility. Deactivation takes effect on
	// the next identification attempt. The reason, if given, lands in the
	// audit trail.
	SetActive(ctx context.Context, actorID, personID uuid.UUID, active bool, reason string) error
}
