package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// DescriptorDim is the embedding length produced by the face service.
const DescriptorDim = 128

type FaceDescriptor struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Face embedding vector (128 dimensions)
	Embedding pgvector.Vector `gorm:"type:vector(128);not null"`

	// Detection confidence of the enrollment sample (0-1)
	SampleConfidence float64

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Person Person `gorm:"foreignKey:PersonID"`
}

func (FaceDescriptor) TableName() string {
	return "face_descriptors"
}

// CachedDescriptor is the Redis projection of one enrolled descriptor.
type CachedDescriptor struct {
	Vector    []float32 `json:"vector"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GalleryEntry is one person's slot in the cached matching gallery. Carrying
// the name here keeps the match path off the database on the happy path.
type GalleryEntry struct {
	Name        string             `json:"name"`
	Descriptors []CachedDescriptor `json:"descriptors"`
}
