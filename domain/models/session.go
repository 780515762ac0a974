package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the durable record behind an issued token. SessionID is the
// public identifier carried in the token's sid claim; it is replaced on
// every refresh while the row keeps its primary key.
type Session struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	PersonID  uuid.UUID `gorm:"type:uuid;not null;index"`

	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	IsActive  bool      `gorm:"default:true"`

	IPAddress string
	UserAgent string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Person Person `gorm:"foreignKey:PersonID"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionProjection is the Redis projection of an active session, keyed by
// SessionID. A hit is a positive assertion; absence falls through to the
// durable store.
type SessionProjection struct {
	PersonID uuid.UUID `json:"person_id"`
	Role     string    `json:"role"`
	Name     string    `json:"name"`
}
