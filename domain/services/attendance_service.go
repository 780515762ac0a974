package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

// CheckRequest is one attendance check attempt from a kiosk or client.
type CheckRequest struct {
	ImageData []byte
	MimeType  string
	Latitude  *float64
	Longitude *float64
}

// CheckResult is a recorded attendance event together with the match that
// produced it.
type CheckResult struct {
	Event *models.AttendanceEvent `json:"event"`
	Match *MatchResult            `json:"match"`
}

// TodayStatus summarizes a person's current day.
type TodayStatus struct {
	PersonID  uuid.UUID               `json:"person_id"`
	LastEvent *models.AttendanceEvent `json:"last_event,omitempty"`
	NextType  models.EventType        `json:"next_type"`
}

// AttendanceService runs the entry/exit state machine on top of the
// recognition service.
type AttendanceService interface {
	// Check identifies the face and records the next event for the matched
	// person. Returns *SuppressedError inside the duplicate-suppression
	// window; the recognition errors pass through unchanged.
	Check(ctx context.Context, req CheckRequest) (*CheckResult, error)

	// DetermineNextType decides the type of the person's next event at the
	// given instant. The first event of each calendar day is ENTRY and
	// types strictly alternate within a day.
	DetermineNextType(ctx context.Context, personID uuid.UUID, now time.Time) (models.EventType, error)

	// GetHistory lists a person's events newest first. Zero bounds mean
	// unbounded.
	GetHistory(ctx context.Context, personID uuid.UUID, from, to time.Time, page, limit int) ([]models.AttendanceEvent, int64, error)

	// GetToday returns the person's last event today and the type the next
	// check would record
	GetToday(ctx context.Context, personID uuid.UUID) (*TodayStatus, error)

	// List lists events across all persons newest first (admin view)
	List(ctx context.Context, from, to time.Time, page, limit int) ([]models.AttendanceEvent, int64, error)

	// Correct rewrites an event's type on behalf of an admin and records
	// the change in the audit log
	Correct(ctx context.Context, actorID, eventID uuid.UUID, newType models.EventType, reason string) (*models.AttendanceEvent, error)
}
