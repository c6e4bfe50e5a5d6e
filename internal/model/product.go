package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Product is a stocked article. WarningStockLevel >= MinStockLevel is
// enforced on create/update, not by the table.
type Product struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string    `gorm:"index;not null"`
	Description       *string
	SKU               *string    `gorm:"column:sku"`
	Barcode           *string    `gorm:"index"`
	CategoryID        *uuid.UUID `gorm:"type:uuid;index"`
	UnitOfMeasure     string     `gorm:"not null;default:'unit'"`
	HasExpiry         bool       `gorm:"not null;default:false"`
	MinStockLevel     int        `gorm:"not null;default:0"`
	WarningStockLevel int        `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

// Category groups products.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName keeps the irregular plural used by the schema.
func (Category) TableName() string { return "categories" }

// ProductVariant is a flavour/size of a product. Attributes is free JSON.
type ProductVariant struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantName string          `gorm:"not null"`
	Attributes  json.RawMessage `gorm:"type:jsonb;not null;default:'{}'"`
	IsActive    bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Batch is a lot of a product with an optional expiry date.
type Batch struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID        *uuid.UUID `gorm:"type:uuid"`
	BatchNumber      string     `gorm:"not null"`
	ExpiryDate       *time.Time `gorm:"type:date;index"`
	ManufacturedDate *time.Time `gorm:"type:date"`
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Inventory []BatchInventory `gorm:"foreignKey:BatchID"`
}

// TableName keeps the irregular plural used by the schema.
func (Batch) TableName() string { return "batches" }

// BatchInventory is the quantity of a batch held at a location.
type BatchInventory struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LocationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BatchID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID  *uuid.UUID `gorm:"type:uuid"`
	Quantity   int        `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (BatchInventory) TableName() string { return "batch_inventory" }
