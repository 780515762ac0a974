package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventEntry EventType = "ENTRY"
	EventExit  EventType = "EXIT"
)

// Opposite returns the event type that must follow this one within a day.
func (t EventType) Opposite() EventType {
	if t == EventEntry {
		return EventExit
	}
	return EventEntry
}

// AttendanceEvent is one accepted check. Rows are append-only; an admin
// correction updates Type in place and sets Corrected.
type AttendanceEvent struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PersonID uuid.UUID `gorm:"type:uuid;not null;index"`

	Type      EventType `gorm:"type:varchar(10);not null"`
	Timestamp time.Time `gorm:"not null;index"`

	// Match confidence at check time (0-1)
	Confidence float64 `gorm:"not null"`

	// Snapshot object key in MinIO (optional)
	ImageKey string

	// Optional client location
	Latitude  *float64
	Longitude *float64

	Corrected bool `gorm:"default:false"`

	CreatedAt time.Time

	// Relations
	Person Person `gorm:"foreignKey:PersonID"`
}

func (AttendanceEvent) TableName() string {
	return "attendance_events"
}

// RecentAttendanceMarker is the Redis projection of a person's latest event.
// It only accelerates the next-type decision; the durable rows stay
// authoritative.
type RecentAttendanceMarker struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
