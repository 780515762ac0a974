package dto

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogResponse is one administrative action
type AuditLogResponse struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   uuid.UUID  `json:"actor_id"`
	PersonID  *uuid.UUID `json:"person_id,omitempty"`
	Action    string     `json:"action"`
	Details   string     `json:"details,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuditListResponse is a paginated audit listing
type AuditListResponse struct {
	Entries []AuditLogResponse `json:"entries"`
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
}
