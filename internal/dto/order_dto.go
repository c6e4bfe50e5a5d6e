package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID             string           `json:"product_id"              validate:"required,uuid"`
	VariantID             *string          `json:"variant_id"              validate:"omitempty,uuid"`
	Quantity              int              `json:"quantity"                validate:"required,gt=0"`
	UnitPrice             *decimal.Decimal `json:"unit_price"`
	DestinationLocationID string           `json:"destination_location_id" validate:"required,uuid"`
	Notes                 *string          `json:"notes"                   validate:"omitempty,max=500"`
}

// CreateOrderRequest creates an order with its lines. Status draft saves
// without placing; ordered places it and stamps the ordered date.
type CreateOrderRequest struct {
	SupplierID           string             `json:"supplier_id"            validate:"required,uuid"`
	Status               string             `json:"status"                 validate:"required,oneof=draft ordered"`
	ExpectedDeliveryDate *string            `json:"expected_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	Notes                *string            `json:"notes"                  validate:"omitempty,max=2000"`
	Items                []OrderItemRequest `json:"items"                  validate:"required,min=1,dive"`
}

// UpdateOrderRequest edits an editable order. Status may only be set to
// ordered, which places a draft.
type UpdateOrderRequest struct {
	SupplierID           *string `json:"supplier_id"            validate:"omitempty,uuid"`
	Status               *string `json:"status"                 validate:"omitempty,oneof=ordered"`
	ExpectedDeliveryDate *string `json:"expected_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	Notes                *string `json:"notes"                  validate:"omitempty,max=2000"`
}

type ReceiveLine struct {
	ItemID   string `json:"item_id"  validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type ReceiveOrderRequest struct {
	Items []ReceiveLine `json:"items" validate:"required,min=1,dive"`
	Notes *string       `json:"notes" validate:"omitempty,max=1000"`
}

type SendOrderRequest struct {
	To      *string `json:"to"      validate:"omitempty,email"`
	Message *string `json:"message" validate:"omitempty,max=2000"`
}

type OrderFilter struct {
	Status     string `form:"status"      validate:"omitempty,oneof=draft pending ordered partially_received received cancelled"`
	SupplierID string `form:"supplier_id" validate:"omitempty,uuid"`
	From       string `form:"from"        validate:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"          validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ID                      string           `json:"id"`
	ProductID               string           `json:"product_id"`
	ProductName             string           `json:"product_name"`
	VariantID               *string          `json:"variant_id"`
	Quantity                int              `json:"quantity"`
	ReceivedQuantity        int              `json:"received_quantity"`
	UnitPrice               *decimal.Decimal `json:"unit_price"`
	LineTotal               decimal.Decimal  `json:"line_total"`
	DestinationLocationID   string           `json:"destination_location_id"`
	DestinationLocationName string           `json:"destination_location_name"`
	Notes                   *string          `json:"notes"`
}

// OrderSummary is one row of the order list. CompletionPct is null when the
// order has no quantity to receive.
type OrderSummary struct {
	ID                   string          `json:"id"`
	ReferenceNumber      string          `json:"reference_number"`
	Status               string          `json:"status"`
	SupplierID           string          `json:"supplier_id"`
	SupplierName         string          `json:"supplier_name"`
	OrderedDate          *string         `json:"ordered_date"`
	ExpectedDeliveryDate *string         `json:"expected_delivery_date"`
	ReceivedDate         *string         `json:"received_date"`
	CreatedAt            string          `json:"created_at"`
	TotalQuantity        int             `json:"total_quantity"`
	ReceivedQuantity     int             `json:"received_quantity"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	CompletionPct        *int            `json:"completion_pct"`
}

type OrderDetailResponse struct {
	OrderSummary
	Notes       *string             `json:"notes"`
	OrderedBy   string              `json:"ordered_by"`
	OrderedName string              `json:"ordered_by_name"`
	Items       []OrderItemResponse `json:"items"`
	CanEdit     bool                `json:"can_edit"`
	CanReceive  bool                `json:"can_receive"`
	CanCancel   bool                `json:"can_cancel"`
}

type PriceLookupResponse struct {
	SupplierID        string           `json:"supplier_id"`
	ProductID         string           `json:"product_id"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	SupplierReference *string          `json:"supplier_reference"`
	LeadTimeDays      *int             `json:"lead_time_days"`
}
