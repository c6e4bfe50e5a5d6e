package model

import (
	"time"

	"sosstock/internal/domain"

	"github.com/google/uuid"
)

// Profile is an application user. Role gates admin-only routes.
type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	FullName     *string
	AvatarURL    *string
	Role         domain.Role `gorm:"type:varchar(20);not null;default:'operator'"`
	PasswordHash string      `gorm:"not null" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the full name when set, the email otherwise.
func (p Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}
