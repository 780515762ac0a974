package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	// Person administration
	AuditPersonRegistered  AuditAction = "person_registered"
	AuditPersonDeactivated AuditAction = "person_deactivated"
	AuditPersonReactivated AuditAction = "person_reactivated"

	// Enrollment
	AuditDescriptorsAdded   AuditAction = "descriptors_added"
	AuditDescriptorsCleared AuditAction = "descriptors_cleared"

	// Attendance
	AuditAttendanceCorrected AuditAction = "attendance_corrected"

	// Sessions
	AuditSessionsRevoked AuditAction = "sessions_revoked"
)

// AuditLog stores administrative actions for later review
type AuditLog struct {
	ID       uuid.UUID   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ActorID  uuid.UUID   `gorm:"type:uuid;not null;index"`
	PersonID *uuid.UUID  `gorm:"type:uuid;index"` // Subject person, when applicable
	Action   AuditAction `gorm:"type:varchar(50);not null;index"`
	Details  string      `gorm:"type:jsonb"` // Structured details as JSON string

	CreatedAt time.Time `gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditDetails is a helper struct for common audit details
type AuditDetails struct {
	EventID string `json:"event_id,omitempty"`
	OldType string `json:"old_type,omitempty"`
	NewType string `json:"new_type,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Count   int    `json:"count,omitempty"`
}
