package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
)

// ClientInfo captures where a session was opened from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthResult is an issued token with its session context.
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Person    *models.Person `json:"-"`
}

// TokenPrincipal is the authenticated caller extracted from a valid token.
type TokenPrincipal struct {
	SessionID uuid.UUID
	PersonID  uuid.UUID
	Role      string
	Name      string
}

// AuthService owns the session lifecycle. The durable store is
// authoritative; the session cache is a projection that only shortens the
// validation path.
type AuthService interface {
	// Login authenticates with email and password and opens a session
	Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error)

	// GetGoogleAuthURL returns the Google OAuth authorization URL
	GetGoogleAuthURL(state string) string

	// HandleGoogleCallback exchanges the OAuth code and opens a session
	// for an already registered, active person
	HandleGoogleCallback(ctx context.Context, code string, client ClientInfo) (*AuthResult, error)

	// Validate checks signature and expiry first, then confirms the
	// session is still active. Returns ErrSessionNotFound for a revoked or
	// rotated session.
	Validate(ctx context.Context, token string) (*TokenPrincipal, error)

	// Refresh rotates the session identifier and returns a new token. The
	// old token stops validating immediately.
	Refresh(ctx context.Context, token string, client ClientInfo) (*AuthResult, error)

	// Revoke deactivates a single session
	Revoke(ctx context.Context, sessionID uuid.UUID) error

	// RevokeAll deactivates every session of a person and returns the
	// count. The actor is whoever triggered it, the person on logout-all
	// or an admin on deactivation.
	RevokeAll(ctx context.Context, actorID, personID uuid.UUID) (int64, error)

	// Sessions lists a person's active sessions
	Sessions(ctx context.Context, personID uuid.UUID) ([]models.Session, error)

	// CleanupExpired removes expired and inactive rows. Validity never
	// depends on it running.
	CleanupExpired(ctx context.Context) (int64, error)
}
