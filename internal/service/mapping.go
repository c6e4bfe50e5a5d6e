package service

// mapping.go converts rows into response DTOs and derives the stock status
// shown next to them.

import (
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/model"

	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"

	// topRowsPerLocation is how many inventory rows a location card shows.
	topRowsPerLocation = 10
)

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeStr(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := timeStr(*t)
	return &s
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// parseDate reads an optional yyyy-mm-dd value.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, fieldError(field, "Must be a date (yyyy-mm-dd)")
	}
	return &t, nil
}

func thresholdsOf(p *model.Product) domain.Thresholds {
	if p == nil {
		return domain.Thresholds{}
	}
	return domain.Thresholds{Min: p.MinStockLevel, Warning: p.WarningStockLevel}
}

func profileResponse(p *model.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:        p.ID.String(),
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Role:      string(p.Role),
		CreatedAt: timeStr(p.CreatedAt),
	}
}

func categoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID.String(), Name: c.Name, Description: c.Description}
}

func productResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Description:       p.Description,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		CategoryID:        idPtr(p.CategoryID),
		UnitOfMeasure:     p.UnitOfMeasure,
		HasExpiry:         p.HasExpiry,
		MinStockLevel:     p.MinStockLevel,
		WarningStockLevel: p.WarningStockLevel,
	}
	if p.Category != nil {
		c := categoryResponse(p.Category)
		resp.Category = &c
	}
	return resp
}

func locationResponse(l *model.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:          l.ID.String(),
		Name:        l.Name,
		Description: l.Description,
		Address:     l.Address,
		IsActive:    l.IsActive,
	}
}

func supplierResponse(s *model.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID:          s.ID.String(),
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		Notes:       s.Notes,
		IsActive:    s.IsActive,
	}
}

// stockRow classifies one inventory row against its product thresholds.
func stockRow(it *model.InventoryItem) dto.StockRow {
	row := dto.StockRow{
		InventoryID: it.ID.String(),
		ProductID:   it.ProductID.String(),
		VariantID:   idPtr(it.VariantID),
		LocationID:  it.LocationID.String(),
		Quantity:    it.Quantity,
	}
	if it.Product != nil {
		row.ProductName = it.Product.Name
		row.Unit = it.Product.UnitOfMeasure
		row.MinStock = it.Product.MinStockLevel
		row.WarningStock = it.Product.WarningStockLevel
	}
	if it.Variant != nil {
		name := it.Variant.VariantName
		row.VariantName = &name
	}
	if it.Location != nil {
		row.LocationName = it.Location.Name
	}
	row.StockStatus = string(domain.ClassifyQuantity(it.Quantity, thresholdsOf(it.Product)))
	return row
}

func stockLine(it *model.InventoryItem) domain.StockLine {
	return domain.StockLine{Quantity: it.Quantity, Thresholds: thresholdsOf(it.Product)}
}

// stockRows maps rows and returns them with their aggregate status.
func stockRows(items []model.InventoryItem) ([]dto.StockRow, []domain.StockLine, domain.StockStatus) {
	rows := make([]dto.StockRow, len(items))
	lines := make([]domain.StockLine, len(items))
	for i := range items {
		rows[i] = stockRow(&items[i])
		lines[i] = stockLine(&items[i])
	}
	return rows, lines, domain.AggregateLines(lines)
}

// locationSummaries groups inventory rows by location. Every location gets
// a card, the status aggregates all of its rows while only the largest
// topRowsPerLocation rows are listed. items must be sorted by quantity desc.
func locationSummaries(locs []model.Location, items []model.InventoryItem) ([]dto.LocationSummary, []domain.StockLine) {
	byLoc := make(map[uuid.UUID][]model.InventoryItem, len(locs))
	for _, it := range items {
		byLoc[it.LocationID] = append(byLoc[it.LocationID], it)
	}

	out := make([]dto.LocationSummary, 0, len(locs))
	var all []domain.StockLine
	for i := range locs {
		rows, lines, status := stockRows(byLoc[locs[i].ID])
		all = append(all, lines...)
		if len(rows) > topRowsPerLocation {
			rows = rows[:topRowsPerLocation]
		}
		out = append(out, dto.LocationSummary{
			LocationResponse: locationResponse(&locs[i]),
			Products:         rows,
			StockStatus:      string(status),
		})
	}
	return out, all
}

func movementResponse(m *model.InventoryMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:                    m.ID.String(),
		MovementType:          string(m.MovementType),
		ProductID:             m.ProductID.String(),
		VariantID:             idPtr(m.VariantID),
		BatchID:               idPtr(m.BatchID),
		SourceLocationID:      idPtr(m.SourceLocationID),
		DestinationLocationID: idPtr(m.DestinationLocationID),
		Quantity:              m.Quantity,
		MovedBy:               m.MovedBy.String(),
		ReferenceNumber:       m.ReferenceNumber,
		Notes:                 m.Notes,
		CreatedAt:             timeStr(m.CreatedAt),
	}
	if m.Product != nil {
		resp.ProductName = m.Product.Name
	}
	if m.SourceLocation != nil {
		resp.SourceLocationName = &m.SourceLocation.Name
	}
	if m.DestinationLocation != nil {
		resp.DestinationLocationName = &m.DestinationLocation.Name
	}
	if m.Mover != nil {
		resp.MovedByName = m.Mover.DisplayName()
	}
	return resp
}

func alertResponse(a *model.Alert) dto.AlertResponse {
	resp := dto.AlertResponse{
		ID:         a.ID.String(),
		AlertType:  string(a.AlertType),
		Severity:   string(a.Severity),
		Message:    a.Message,
		IsRead:     a.IsRead,
		CreatedAt:  timeStr(a.CreatedAt),
		ProductID:  idPtr(a.ProductID),
		VariantID:  idPtr(a.VariantID),
		BatchID:    idPtr(a.BatchID),
		LocationID: idPtr(a.LocationID),
	}
	if a.Product != nil {
		resp.ProductName = &a.Product.Name
	}
	if a.Location != nil {
		resp.LocationName = &a.Location.Name
	}
	return resp
}

func orderItemResponse(it *model.OrderItem) dto.OrderItemResponse {
	resp := dto.OrderItemResponse{
		ID:                    it.ID.String(),
		ProductID:             it.ProductID.String(),
		VariantID:             idPtr(it.VariantID),
		Quantity:              it.Quantity,
		ReceivedQuantity:      it.ReceivedQuantity,
		UnitPrice:             it.UnitPrice,
		LineTotal:             it.LineTotal(),
		DestinationLocationID: it.DestinationLocationID.String(),
		Notes:                 it.Notes,
	}
	if it.Product != nil {
		resp.ProductName = it.Product.Name
	}
	if it.DestinationLocation != nil {
		resp.DestinationLocationName = it.DestinationLocation.Name
	}
	return resp
}

// orderSummary computes quantities, price and completion from the items.
func orderSummary(o *model.Order) dto.OrderSummary {
	resp := dto.OrderSummary{
		ID:                   o.ID.String(),
		ReferenceNumber:      o.ReferenceNumber,
		Status:               string(o.Status),
		SupplierID:           o.SupplierID.String(),
		OrderedDate:          timePtr(o.OrderedDate),
		ExpectedDeliveryDate: datePtr(o.ExpectedDeliveryDate),
		ReceivedDate:         timePtr(o.ReceivedDate),
		CreatedAt:            timeStr(o.CreatedAt),
	}
	if o.Supplier != nil {
		resp.SupplierName = o.Supplier.Name
	}
	for _, it := range o.Items {
		resp.TotalQuantity += it.Quantity
		resp.ReceivedQuantity += it.ReceivedQuantity
		resp.TotalPrice = resp.TotalPrice.Add(it.LineTotal())
	}
	if pct, ok := domain.Completion(resp.ReceivedQuantity, resp.TotalQuantity); ok {
		resp.CompletionPct = &pct
	}
	return resp
}

func orderDetail(o *model.Order) *dto.OrderDetailResponse {
	resp := &dto.OrderDetailResponse{
		OrderSummary: orderSummary(o),
		Notes:        o.Notes,
		OrderedBy:    o.OrderedBy.String(),
		Items:        make([]dto.OrderItemResponse, len(o.Items)),
		CanEdit:      o.Status.CanEdit(),
		CanReceive:   o.Status.CanReceive(),
		CanCancel:    o.Status.CanCancel(),
	}
	if o.Orderer != nil {
		resp.OrderedName = o.Orderer.DisplayName()
	}
	for i := range o.Items {
		resp.Items[i] = orderItemResponse(&o.Items[i])
	}
	return resp
}
