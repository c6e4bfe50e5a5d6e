package model

import (
	"time"

	"sosstock/internal/domain"

	"github.com/google/uuid"
)

// Location is a storage place. Its product list comes from the inventory
// join, not from a column.
type Location struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Description *string
	Address     *string
	IsActive    bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InventoryItem is the current quantity of a product (variant) at a location.
// One row per (location, product, variant); created by the first movement
// into the location and never deleted, it reaches zero instead.
type InventoryItem struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LocationID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID        *uuid.UUID `gorm:"type:uuid;index"`
	Quantity         int        `gorm:"not null;default:0;check:quantity >= 0"`
	ReservedQuantity int        `gorm:"not null;default:0"`
	LastCountedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Product  *Product        `gorm:"foreignKey:ProductID"`
	Variant  *ProductVariant `gorm:"foreignKey:VariantID"`
	Location *Location       `gorm:"foreignKey:LocationID"`
}

func (InventoryItem) TableName() string { return "inventory" }

// InventoryMovement is an append-only ledger entry. Rows are never updated
// or deleted.
type InventoryMovement struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MovementType          domain.MovementType `gorm:"type:text;not null;index"`
	ProductID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	VariantID             *uuid.UUID          `gorm:"type:uuid"`
	BatchID               *uuid.UUID          `gorm:"type:uuid"`
	SourceLocationID      *uuid.UUID          `gorm:"type:uuid;index"`
	DestinationLocationID *uuid.UUID          `gorm:"type:uuid;index"`
	Quantity              int                 `gorm:"not null;check:quantity > 0"`
	MovedBy               uuid.UUID           `gorm:"type:uuid;not null"`
	ReferenceNumber       *string
	Notes                 *string
	CreatedAt             time.Time `gorm:"index"`

	Product             *Product  `gorm:"foreignKey:ProductID"`
	SourceLocation      *Location `gorm:"foreignKey:SourceLocationID"`
	DestinationLocation *Location `gorm:"foreignKey:DestinationLocationID"`
	Mover               *Profile  `gorm:"foreignKey:MovedBy"`
}
