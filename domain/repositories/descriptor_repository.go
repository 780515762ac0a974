package repositories

import (
	"context"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

type DescriptorRepository interface {
	Create(ctx context.Context, descriptor *models.FaceDescriptor) error
	CreateBatch(ctx context.Context, descriptors []*models.FaceDescriptor) error
	GetByPerson(ctx context.Context, personID uuid.UUID) ([]models.FaceDescriptor, error)

	// GetAllActive returns the descriptors of active persons only. This is
	// the gallery rebuild source.
	GetAllActive(ctx context.Context) ([]models.FaceDescriptor, error)

	DeleteByPerson(ctx context.Context, personID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
}
