package dto

import "github.com/shopspring/decimal"

type DashboardResponse struct {
	Locations            []LocationSummary `json:"locations"`
	TotalItems           int               `json:"total_items"`
	ItemsToOrder         int               `json:"items_to_order"`
	LocationsCount       int               `json:"locations_count"`
	EstimatedOrderValue  decimal.Decimal   `json:"estimated_order_value"`
	PendingOrdersCount   int               `json:"pending_orders_count"`
	ExpiredProductsCount int               `json:"expired_products_count"`
	CriticalAlertsCount  int               `json:"critical_alerts_count"`
}

type ToOrderRow struct {
	ProductID         string           `json:"product_id"`
	ProductName       string           `json:"product_name"`
	LocationID        string           `json:"location_id"`
	LocationName      string           `json:"location_name"`
	Quantity          int              `json:"quantity"`
	MinStockLevel     int              `json:"min_stock_level"`
	WarningStockLevel int              `json:"warning_stock_level"`
	SupplierID        *string          `json:"supplier_id"`
	SupplierName      *string          `json:"supplier_name"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
}

type ExpiringRow struct {
	BatchID         string `json:"batch_id"`
	BatchNumber     string `json:"batch_number"`
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	LocationID      string `json:"location_id"`
	LocationName    string `json:"location_name"`
	Quantity        int    `json:"quantity"`
	ExpiryDate      string `json:"expiry_date"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
}
