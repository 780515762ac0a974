package serviceimpl

import (
	"context"

	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
	"faceclock/domain/services"
)

type AuditServiceImpl struct {
	auditRepo repositories.AuditLogRepository
}

func NewAuditService(auditRepo repositories.AuditLogRepository) services.AuditService {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
	}
}

func (s *AuditServiceImpl) GetRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.auditRepo.GetRecent(ctx, limit)
}

func (s *AuditServiceImpl) GetByPerson(ctx context.Context, personID uuid.UUID, page, limit int) ([]models.AuditLog, int64, error) {
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	return s.auditRepo.GetByPerson(ctx, personID, offset, limit)
}

func (s *AuditServiceImpl) Cleanup(ctx context.Context, days int) (int64, error) {
	return s.auditRepo.DeleteOlderThan(ctx, days)
}
