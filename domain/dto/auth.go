package dto

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest is the email/password login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries the token to rotate
type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthResponse is returned by login, callback and refresh
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Person    *PersonResponse `json:"person"`
}

// SessionResponse is one active session of the caller
type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Current   bool      `json:"current"`
}

// SessionListResponse lists the caller's active sessions
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}
