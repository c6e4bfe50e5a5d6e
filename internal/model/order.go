package model

import (
	"time"

	"sosstock/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a purchase order placed with a supplier. Orders are never
// deleted; cancelled is terminal.
type Order struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReferenceNumber      string             `gorm:"uniqueIndex;not null"`
	Status               domain.OrderStatus `gorm:"type:text;not null;index"`
	SupplierID           uuid.UUID          `gorm:"type:uuid;not null;index"`
	OrderedBy            uuid.UUID          `gorm:"type:uuid;not null"`
	OrderedDate          *time.Time
	ExpectedDeliveryDate *time.Time `gorm:"type:date"`
	ReceivedDate         *time.Time
	Notes                *string
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time

	Supplier *Supplier   `gorm:"foreignKey:SupplierID"`
	Orderer  *Profile    `gorm:"foreignKey:OrderedBy"`
	Items    []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is one line of an order. ReceivedQuantity only grows and is
// capped at Quantity by the reception workflow.
type OrderItem struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID               uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID             uuid.UUID        `gorm:"type:uuid;not null"`
	VariantID             *uuid.UUID       `gorm:"type:uuid"`
	Quantity              int              `gorm:"not null;check:quantity > 0"`
	ReceivedQuantity      int              `gorm:"not null;default:0"`
	UnitPrice             *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DestinationLocationID uuid.UUID        `gorm:"type:uuid;not null"`
	Notes                 *string
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Product             *Product  `gorm:"foreignKey:ProductID"`
	DestinationLocation *Location `gorm:"foreignKey:DestinationLocationID"`
}

// Progress returns the line quantities in domain form.
func (i OrderItem) Progress() domain.LineProgress {
	return domain.LineProgress{Quantity: i.Quantity, ReceivedQuantity: i.ReceivedQuantity}
}

// LineTotal is unit price times ordered quantity, zero without a price.
func (i OrderItem) LineTotal() decimal.Decimal {
	if i.UnitPrice == nil {
		return decimal.Zero
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
