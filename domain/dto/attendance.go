package dto

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceEventResponse is one recorded event
type AttendanceEventResponse struct {
	ID         uuid.UUID `json:"id"`
	PersonID   uuid.UUID `json:"person_id"`
	PersonName string    `json:"person_name,omitempty"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	ImageKey   string    `json:"image_key,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Corrected  bool      `json:"corrected"`
}

// CheckResponse is the result of an accepted attendance check
type CheckResponse struct {
	Event      AttendanceEventResponse `json:"event"`
	Confidence float64                 `json:"confidence"`
	Distance   float64                 `json:"distance"`
}

// TodayResponse summarizes the caller's current day
type TodayResponse struct {
	PersonID  uuid.UUID                `json:"person_id"`
	LastEvent *AttendanceEventResponse `json:"last_event,omitempty"`
	NextType  string                   `json:"next_type"`
}

// AttendanceListResponse is a paginated event listing
type AttendanceListResponse struct {
	Events []AttendanceEventResponse `json:"events"`
	Total  int64                     `json:"total"`
	Page   int                       `json:"page"`
	Limit  int                       `json:"limit"`
}

// CorrectEventRequest rewrites an event's type (admin)
type CorrectEventRequest struct {
	Type   string `json:"type" validate:"required,oneof=ENTRY EXIT"`
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// IdentifyResponse is a match without a recorded event
type IdentifyResponse struct {
	PersonID   uuid.UUID `json:"person_id"`
	PersonName string    `json:"person_name"`
	Distance   float64   `json:"distance"`
	Confidence float64   `json:"confidence"`
}
