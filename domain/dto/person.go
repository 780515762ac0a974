package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterPersonRequest is the multipart form for enrolling a new person.
// The face sample files ride alongside these fields.
type RegisterPersonRequest struct {
	Name     string `form:"name" validate:"required,min=2"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"omitempty,min=8"`
	Role     string `form:"role" validate:"omitempty,oneof=standard admin"`
}

// SetActiveRequest toggles a person's matching eligibility
type SetActiveRequest struct {
	Active bool   `json:"active"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// PersonResponse is the public view of a person
type PersonResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"is_active"`
	DescriptorCount int        `json:"descriptor_count"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PersonListResponse is a paginated person listing
type PersonListResponse struct {
	Persons []PersonResponse `json:"persons"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}
