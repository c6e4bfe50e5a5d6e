package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier holds contact data for a vendor.
type Supplier struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	Notes       *string
	IsActive    bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductSupplier links a product to a supplier with its commercial terms.
// IsPreferred is advisory; several links of a product may carry it.
type ProductSupplier struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	VariantID         *uuid.UUID       `gorm:"type:uuid"`
	SupplierID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	SupplierReference *string
	UnitPrice         *decimal.Decimal `gorm:"type:decimal(12,2)"`
	IsPreferred       bool             `gorm:"not null;default:false"`
	LeadTimeDays      *int
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
	Product  *Product  `gorm:"foreignKey:ProductID"`
}
