package services

import (
	"context"

	"github.com/google/uuid"
)

// MatchResult is the outcome of an accepted identification. Confidence is
// max(0, 1 - distance). Results are transient and never persisted with the
// gallery.
type MatchResult struct {
	PersonID   uuid.UUID `json:"person_id"`
	PersonName string    `json:"person_name"`
	Distance   float64   `json:"distance"`
	Confidence float64   `json:"confidence"`
}

// RecognitionService matches face descriptors against the enrolled gallery.
type RecognitionService interface {
	// Identify matches a 128-dim descriptor against all active persons.
	// Returns ErrNoMatch when nothing clears the distance threshold and
	// ErrAmbiguousMatch when two persons are too close to separate.
	Identify(ctx context.Context, descriptor []float32) (*MatchResult, error)

	// IdentifyImage extracts the dominant face from the image first, then
	// identifies its descriptor. Returns ErrNoFaceDetected when the face
	// service finds nothing.
	IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*MatchResult, error)

	// RebuildGallery reloads the cached gallery from the durable store and
	// returns the number of persons cached
	RebuildGallery(ctx context.Context) (int, error)

	// InvalidatePerson drops one person from the cached gallery. Called
	// after enrollment changes and deactivation.
	InvalidatePerson(ctx context.Context, personID uuid.UUID) error
}
