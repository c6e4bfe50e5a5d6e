package model

import (
	"time"

	"sosstock/internal/domain"

	"github.com/google/uuid"
)

// Alert rows are inserted by database triggers; the application only flips
// IsRead.
type Alert struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AlertType  domain.AlertType `gorm:"type:text;not null"`
	ProductID  *uuid.UUID       `gorm:"type:uuid"`
	VariantID  *uuid.UUID       `gorm:"type:uuid"`
	BatchID    *uuid.UUID       `gorm:"type:uuid"`
	LocationID *uuid.UUID       `gorm:"type:uuid"`
	Message    string           `gorm:"not null"`
	IsRead     bool             `gorm:"not null;default:false;index"`
	Severity   domain.Severity  `gorm:"type:text;not null"`
	CreatedAt  time.Time        `gorm:"index"`

	Product  *Product        `gorm:"foreignKey:ProductID"`
	Variant  *ProductVariant `gorm:"foreignKey:VariantID"`
	Location *Location       `gorm:"foreignKey:LocationID"`
}

func (a Alert) AlertID() uuid.UUID             { return a.ID }
func (a Alert) AlertSeverity() domain.Severity { return a.Severity }
