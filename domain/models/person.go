package models

import (
	"time"

	"github.com/google/uuid"
)

type Person struct {
	ID uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	Name     string `gorm:"not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Password string // Optional for OAuth-only people
	Role     string `gorm:"default:'standard'"` // standard, admin
	IsActive bool   `gorm:"default:true"`

	// Last accepted recognition
	LastSeenAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Descriptors []FaceDescriptor `gorm:"foreignKey:PersonID"`
}

func (Person) TableName() string {
	return "persons"
}
