package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CategoryRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type LocationRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Address     *string `json:"address"     validate:"omitempty,max=300"`
	IsActive    *bool   `json:"is_active"`
}

// ProductRequest is used for both create and update; an update replaces
// every field.
type ProductRequest struct {
	Name              string  `json:"name"                validate:"required,min=1,max=200"`
	Description       *string `json:"description"         validate:"omitempty,max=1000"`
	SKU               *string `json:"sku"                 validate:"omitempty,max=64"`
	Barcode           *string `json:"barcode"             validate:"omitempty,max=64"`
	CategoryID        *string `json:"category_id"         validate:"omitempty,uuid"`
	UnitOfMeasure     string  `json:"unit_of_measure"     validate:"omitempty,max=32"`
	HasExpiry         bool    `json:"has_expiry"`
	MinStockLevel     int     `json:"min_stock_level"     validate:"gte=0"`
	WarningStockLevel int     `json:"warning_stock_level" validate:"gte=0"`
}

type ProductSupplierRequest struct {
	SupplierID        string           `json:"supplier_id"        validate:"required,uuid"`
	VariantID         *string          `json:"variant_id"         validate:"omitempty,uuid"`
	SupplierReference *string          `json:"supplier_reference" validate:"omitempty,max=100"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	IsPreferred       bool             `json:"is_preferred"`
	LeadTimeDays      *int             `json:"lead_time_days"     validate:"omitempty,gte=0"`
}

type VariantRequest struct {
	VariantName string          `json:"variant_name" validate:"required,min=1,max=120"`
	Attributes  json.RawMessage `json:"attributes"`
	IsActive    *bool           `json:"is_active"`
}

type BatchRequest struct {
	BatchNumber      string  `json:"batch_number"      validate:"required,min=1,max=64"`
	VariantID        *string `json:"variant_id"        validate:"omitempty,uuid"`
	ExpiryDate       *string `json:"expiry_date"       validate:"omitempty,datetime=2006-01-02"`
	ManufacturedDate *string `json:"manufactured_date" validate:"omitempty,datetime=2006-01-02"`
	Notes            *string `json:"notes"             validate:"omitempty,max=500"`
	LocationID       *string `json:"location_id"       validate:"omitempty,uuid"`
	Quantity         int     `json:"quantity"          validate:"gte=0"`
}

type ProductFilter struct {
	CategoryID string `form:"category_id" validate:"omitempty,uuid"`
	Search     string `form:"search"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type ProductResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       *string           `json:"description"`
	SKU               *string           `json:"sku"`
	Barcode           *string           `json:"barcode"`
	CategoryID        *string           `json:"category_id"`
	Category          *CategoryResponse `json:"category,omitempty"`
	UnitOfMeasure     string            `json:"unit_of_measure"`
	HasExpiry         bool              `json:"has_expiry"`
	MinStockLevel     int               `json:"min_stock_level"`
	WarningStockLevel int               `json:"warning_stock_level"`
}

// StockRow is one inventory line as shown in location and product views.
type StockRow struct {
	InventoryID  string  `json:"inventory_id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	VariantID    *string `json:"variant_id"`
	VariantName  *string `json:"variant_name,omitempty"`
	LocationID   string  `json:"location_id"`
	LocationName string  `json:"location_name"`
	Quantity     int     `json:"quantity"`
	Unit         string  `json:"unit_of_measure"`
	MinStock     int     `json:"min_stock_level"`
	WarningStock int     `json:"warning_stock_level"`
	StockStatus  string  `json:"stock_status"`
}

type ProductSupplierResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	SupplierID        string           `json:"supplier_id"`
	SupplierName      string           `json:"supplier_name"`
	VariantID         *string          `json:"variant_id"`
	SupplierReference *string          `json:"supplier_reference"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	IsPreferred       bool             `json:"is_preferred"`
	LeadTimeDays      *int             `json:"lead_time_days"`
}

type ProductDetailResponse struct {
	Product     ProductResponse           `json:"product"`
	Inventory   []StockRow                `json:"inventory"`
	TotalStock  int                       `json:"total_stock"`
	StockStatus string                    `json:"stock_status"`
	Suppliers   []ProductSupplierResponse `json:"suppliers"`
	Categories  []CategoryResponse        `json:"categories"`
}

type VariantResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	VariantName string          `json:"variant_name"`
	Attributes  json.RawMessage `json:"attributes"`
	IsActive    bool            `json:"is_active"`
}

type BatchResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"product_id"`
	VariantID        *string `json:"variant_id"`
	BatchNumber      string  `json:"batch_number"`
	ExpiryDate       *string `json:"expiry_date"`
	ManufacturedDate *string `json:"manufactured_date"`
	Notes            *string `json:"notes"`
	Quantity         int     `json:"quantity"`
	Expired          bool    `json:"expired"`
}

type LocationResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	IsActive    bool    `json:"is_active"`
}

// LocationSummary is a location with its top inventory rows, as listed on
// the dashboard and the locations page.
type LocationSummary struct {
	LocationResponse
	Products    []StockRow `json:"products"`
	StockStatus string     `json:"stock_status"`
}

type LocationDetailResponse struct {
	Location    LocationResponse `json:"location"`
	Inventory   []StockRow       `json:"inventory"`
	TotalItems  int              `json:"total_items"`
	StockStatus string           `json:"stock_status"`
}
