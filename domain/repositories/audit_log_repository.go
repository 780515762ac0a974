package repositories

import (
	"context"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

type AuditLogRepository interface {
	// Create a new audit log entry
	Create(ctx context.Context, log *models.AuditLog) error

	// Get recent entries across all persons (admin view)
	GetRecent(ctx context.Context, limit int) ([]models.AuditLog, error)

	// Get entries about one subject person with pagination
	GetByPerson(ctx context.Context, personID uuid.UUID, offset, limit int) ([]models.AuditLog, int64, error)

	// Delete old entries (cleanup)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}
