package service

import (
	"bytes"
	"context"
	"fmt"

	"sosstock/internal/dto"
	"sosstock/internal/infra"
	"sosstock/internal/repository"
)

type ReportService interface {
	ToOrder(ctx context.Context) ([]dto.ToOrderRow, error)
	Expiring(ctx context.Context, withinDays int) ([]dto.ExpiringRow, error)
	// InventoryWorkbook exports stock, reorder needs and expiring batches.
	InventoryWorkbook(ctx context.Context, withinDays int) (*bytes.Buffer, error)
}

type reportService struct {
	reports   repository.ReportRepository
	inventory repository.InventoryRepository
}

func NewReportService(reports repository.ReportRepository, inventory repository.InventoryRepository) ReportService {
	return &reportService{reports: reports, inventory: inventory}
}

func toOrderRow(r *repository.ToOrderRow) dto.ToOrderRow {
	return dto.ToOrderRow{
		ProductID:         r.ProductID.String(),
		ProductName:       r.ProductName,
		LocationID:        r.LocationID.String(),
		LocationName:      r.LocationName,
		Quantity:          r.Quantity,
		MinStockLevel:     r.MinStockLevel,
		WarningStockLevel: r.WarningStockLevel,
		SupplierID:        idPtr(r.SupplierID),
		SupplierName:      r.SupplierName,
		UnitPrice:         r.UnitPrice,
	}
}

func expiringRow(r *repository.ExpiringRow) dto.ExpiringRow {
	return dto.ExpiringRow{
		BatchID:         r.BatchID.String(),
		BatchNumber:     r.BatchNumber,
		ProductID:       r.ProductID.String(),
		ProductName:     r.ProductName,
		LocationID:      r.LocationID.String(),
		LocationName:    r.LocationName,
		Quantity:        r.Quantity,
		ExpiryDate:      r.ExpiryDate.Format(dateLayout),
		DaysUntilExpiry: r.DaysUntilExpiry,
	}
}

func (s *reportService) ToOrder(ctx context.Context) ([]dto.ToOrderRow, error) {
	rows, err := s.reports.ProductsToOrder(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ToOrderRow, len(rows))
	for i := range rows {
		out[i] = toOrderRow(&rows[i])
	}
	return out, nil
}

func (s *reportService) Expiring(ctx context.Context, withinDays int) ([]dto.ExpiringRow, error) {
	if withinDays < 0 {
		return nil, fieldError("days", "Days must be 0 or more")
	}
	rows, err := s.reports.ExpiringBatches(ctx, withinDays)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpiringRow, len(rows))
	for i := range rows {
		out[i] = expiringRow(&rows[i])
	}
	return out, nil
}

func (s *reportService) InventoryWorkbook(ctx context.Context, withinDays int) (*bytes.Buffer, error) {
	items, err := s.inventory.ListStock(ctx, nil)
	if err != nil {
		return nil, err
	}
	toOrder, err := s.ToOrder(ctx)
	if err != nil {
		return nil, err
	}
	expiring, err := s.Expiring(ctx, withinDays)
	if err != nil {
		return nil, err
	}

	stock := infra.Sheet{
		Name:    "Stock",
		Headers: []string{"Location", "Product", "Quantity", "Unit", "Minimum", "Warning", "Status"},
	}
	for i := range items {
		r := stockRow(&items[i])
		stock.Rows = append(stock.Rows, []any{r.LocationName, r.ProductName, r.Quantity, r.Unit, r.MinStock, r.WarningStock, r.StockStatus})
	}
	reorder := infra.Sheet{
		Name:    "To order",
		Headers: []string{"Product", "Location", "Quantity", "Minimum", "Supplier", "Unit price"},
	}
	for _, r := range toOrder {
		price := ""
		if r.UnitPrice != nil {
			price = r.UnitPrice.StringFixed(2)
		}
		reorder.Rows = append(reorder.Rows, []any{r.ProductName, r.LocationName, r.Quantity, r.MinStockLevel, deref(r.SupplierName), price})
	}
	exp := infra.Sheet{
		Name:    "Expiring",
		Headers: []string{"Product", "Batch", "Location", "Quantity", "Expiry date", "Days left"},
	}
	for _, r := range expiring {
		exp.Rows = append(exp.Rows, []any{r.ProductName, r.BatchNumber, r.LocationName, r.Quantity, r.ExpiryDate, r.DaysUntilExpiry})
	}

	buf, err := infra.BuildWorkbook([]infra.Sheet{stock, reorder, exp})
	if err != nil {
		return nil, fmt.Errorf("inventory workbook: %w", err)
	}
	return buf, nil
}
