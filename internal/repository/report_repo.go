package repository

import (
	"context"
	"time"

	"sosstock/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// DashboardCounts are the aggregate figures shown next to the location
// cards.
type DashboardCounts struct {
	PendingOrders       int             `db:"pending_orders"`
	ExpiredProducts     int             `db:"expired_products"`
	CriticalAlerts      int             `db:"critical_alerts"`
	EstimatedOrderValue decimal.Decimal `db:"estimated_order_value"`
}

// ToOrderRow is an inventory row at or below its minimum level with the
// supplier to reorder from.
type ToOrderRow struct {
	ProductID         uuid.UUID        `db:"product_id"`
	ProductName       string           `db:"product_name"`
	LocationID        uuid.UUID        `db:"location_id"`
	LocationName      string           `db:"location_name"`
	Quantity          int              `db:"quantity"`
	MinStockLevel     int              `db:"min_stock_level"`
	WarningStockLevel int              `db:"warning_stock_level"`
	SupplierID        *uuid.UUID       `db:"supplier_id"`
	SupplierName      *string          `db:"supplier_name"`
	UnitPrice         *decimal.Decimal `db:"unit_price"`
}

// ExpiringRow is a batch quantity at a location with its remaining shelf
// life. DaysUntilExpiry is negative for expired batches.
type ExpiringRow struct {
	BatchID         uuid.UUID `db:"batch_id"`
	BatchNumber     string    `db:"batch_number"`
	ProductID       uuid.UUID `db:"product_id"`
	ProductName     string    `db:"product_name"`
	LocationID      uuid.UUID `db:"location_id"`
	LocationName    string    `db:"location_name"`
	Quantity        int       `db:"quantity"`
	ExpiryDate      time.Time `db:"expiry_date"`
	DaysUntilExpiry int       `db:"days_until_expiry"`
}

// ReportRepository runs hand-written aggregate queries through sqlx.
type ReportRepository interface {
	DashboardCounts(ctx context.Context) (*DashboardCounts, error)
	ProductsToOrder(ctx context.Context) ([]ToOrderRow, error)
	ExpiringBatches(ctx context.Context, withinDays int) ([]ExpiringRow, error)
}

type reportRepo struct{ db *sqlx.DB }

func NewReportRepository(db *sqlx.DB) ReportRepository { return &reportRepo{db: db} }

const dashboardCountsSQL = `
SELECT
  (SELECT COUNT(*) FROM orders WHERE status IN (?)) AS pending_orders,
  (SELECT COUNT(DISTINCT b.product_id)
     FROM batches b
     JOIN batch_inventory bi ON bi.batch_id = b.id
    WHERE b.expiry_date < CURRENT_DATE AND bi.quantity > 0) AS expired_products,
  (SELECT COUNT(*) FROM alerts WHERE is_read = false AND severity = 'critical') AS critical_alerts,
  (SELECT COALESCE(SUM(oi.unit_price * GREATEST(oi.quantity - oi.received_quantity, 0)), 0)
     FROM order_items oi
     JOIN orders o ON o.id = oi.order_id
    WHERE o.status IN (?) AND oi.unit_price IS NOT NULL) AS estimated_order_value`

func (r *reportRepo) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	active := make([]string, len(domain.ActiveOrderStatuses))
	for i, s := range domain.ActiveOrderStatuses {
		active[i] = string(s)
	}
	query, args, err := sqlx.In(dashboardCountsSQL, active, active)
	if err != nil {
		return nil, err
	}
	var c DashboardCounts
	if err := r.db.GetContext(ctx, &c, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return &c, nil
}

const productsToOrderSQL = `
SELECT p.id AS product_id, p.name AS product_name,
       l.id AS location_id, l.name AS location_name,
       i.quantity, p.min_stock_level, p.warning_stock_level,
       ps.supplier_id, s.name AS supplier_name, ps.unit_price
  FROM inventory i
  JOIN products p  ON p.id = i.product_id
  JOIN locations l ON l.id = i.location_id AND l.is_active
  LEFT JOIN LATERAL (
        SELECT supplier_id, unit_price
          FROM product_suppliers
         WHERE product_id = p.id
         ORDER BY is_preferred DESC, unit_price ASC NULLS LAST
         LIMIT 1) ps ON true
  LEFT JOIN suppliers s ON s.id = ps.supplier_id
 WHERE i.quantity <= p.min_stock_level
 ORDER BY p.name, l.name`

func (r *reportRepo) ProductsToOrder(ctx context.Context) ([]ToOrderRow, error) {
	var rows []ToOrderRow
	err := r.db.SelectContext(ctx, &rows, productsToOrderSQL)
	return rows, err
}

const expiringBatchesSQL = `
SELECT b.id AS batch_id, b.batch_number,
       p.id AS product_id, p.name AS product_name,
       l.id AS location_id, l.name AS location_name,
       bi.quantity, b.expiry_date,
       (b.expiry_date - CURRENT_DATE) AS days_until_expiry
  FROM batches b
  JOIN products p         ON p.id = b.product_id
  JOIN batch_inventory bi ON bi.batch_id = b.id
  JOIN locations l        ON l.id = bi.location_id
 WHERE b.expiry_date IS NOT NULL
   AND bi.quantity > 0
   AND b.expiry_date <= CURRENT_DATE + $1::int
 ORDER BY b.expiry_date, p.name`

func (r *reportRepo) ExpiringBatches(ctx context.Context, withinDays int) ([]ExpiringRow, error) {
	var rows []ExpiringRow
	err := r.db.SelectContext(ctx, &rows, expiringBatchesSQL, withinDays)
	return rows, err
}
