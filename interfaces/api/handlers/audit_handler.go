package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"faceclock/domain/dto"
	"faceclock/domain/models"
	"faceclock/domain/services"
	"faceclock/pkg/utils"
)

type AuditHandler struct {
	auditService services.AuditService
}

func NewAuditHandler(auditService services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// List returns recent audit entries, optionally filtered to one person
func (h *AuditHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	if raw := c.Query("personId"); raw != "" {
		personID, err := uuid.Parse(raw)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid person ID", err)
		}

		entries, total, err := h.auditService.GetByPerson(c.Context(), personID, page, limit)
		if err != nil {
			return err
		}
		return utils.SuccessResponse(c, "Audit entries retrieved", toAuditList(entries, total, page, limit))
	}

	entries, err := h.auditService.GetRecent(c.Context(), limit)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, "Audit entries retrieved", toAuditList(entries, int64(len(entries)), page, limit))
}

func toAuditList(entries []models.AuditLog, total int64, page, limit int) *dto.AuditListResponse {
	out := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *dto.AuditLogToResponse(&entries[i]))
	}
	return &dto.AuditListResponse{
		Entries: out,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}
}
