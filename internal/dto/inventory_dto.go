package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MovementRequest uses the same camelCase keys as the field errors returned
// for it, so every error maps onto a body field. Location ids that the
// movement type does not use are ignored.
type MovementRequest struct {
	MovementType          string  `json:"movementType"          validate:"required,oneof=in out transfer adjustment consumption"`
	ProductID             string  `json:"productId"             validate:"omitempty,uuid"`
	VariantID             *string `json:"variantId"             validate:"omitempty,uuid"`
	BatchID               *string `json:"batchId"               validate:"omitempty,uuid"`
	SourceLocationID      string  `json:"sourceLocationId"      validate:"omitempty,uuid"`
	DestinationLocationID string  `json:"destinationLocationId" validate:"omitempty,uuid"`
	Quantity              int     `json:"quantity"`
	ReferenceNumber       *string `json:"referenceNumber"       validate:"omitempty,max=64"`
	Notes                 *string `json:"notes"                 validate:"omitempty,max=1000"`
}

type MovementFilter struct {
	ProductID    string `form:"product_id"    validate:"omitempty,uuid"`
	LocationID   string `form:"location_id"   validate:"omitempty,uuid"`
	MovementType string `form:"movement_type" validate:"omitempty,oneof=in out transfer adjustment consumption"`
	From         string `form:"from"          validate:"omitempty,datetime=2006-01-02"`
	To           string `form:"to"            validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID                      string  `json:"id"`
	MovementType            string  `json:"movement_type"`
	ProductID               string  `json:"product_id"`
	ProductName             string  `json:"product_name"`
	VariantID               *string `json:"variant_id"`
	BatchID                 *string `json:"batch_id"`
	SourceLocationID        *string `json:"source_location_id"`
	SourceLocationName      *string `json:"source_location_name"`
	DestinationLocationID   *string `json:"destination_location_id"`
	DestinationLocationName *string `json:"destination_location_name"`
	Quantity                int     `json:"quantity"`
	MovedBy                 string  `json:"moved_by"`
	MovedByName             string  `json:"moved_by_name"`
	ReferenceNumber         *string `json:"reference_number"`
	Notes                   *string `json:"notes"`
	CreatedAt               string  `json:"created_at"`
}

type InventorySummaryResponse struct {
	Locations    []LocationSummary `json:"locations"`
	TotalItems   int               `json:"total_items"`
	ItemsToOrder int               `json:"items_to_order"`
	StockStatus  string            `json:"stock_status"`
}
