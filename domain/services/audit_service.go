package services

import (
	"context"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

type AuditService interface {
	// GetRecent returns recent audit entries across all persons
	GetRecent(ctx context.Context, limit int) ([]models.AuditLog, error)

	// GetByPerson returns audit entries about one person with pagination
	GetByPerson(ctx context.Context, personID uuid.UUID, page, limit int) ([]models.AuditLog, int64, error)

	// Cleanup deletes old audit entries
	Cleanup(ctx context.Context, days int) (int64, error)
}
