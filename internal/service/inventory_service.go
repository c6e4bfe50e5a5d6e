package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/infra"
	"sosstock/internal/metrics"
	"sosstock/internal/model"
	"sosstock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type InventoryService interface {
	RecordMovement(ctx context.Context, actor *model.Profile, req dto.MovementRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) ([]dto.MovementResponse, error)
	Summary(ctx context.Context) (*dto.InventorySummaryResponse, error)
	// ExportMovements renders the filtered ledger as a workbook.
	ExportMovements(ctx context.Context, filter dto.MovementFilter) (*bytes.Buffer, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	cache     DashboardInvalidator
	metrics   *metrics.Metrics
}

func NewInventoryService(
	repo repository.InventoryRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	cache DashboardInvalidator,
	m *metrics.Metrics,
) InventoryService {
	return &inventoryService{repo: repo, products: products, locations: locations, cache: cache, metrics: m}
}

// idOrNil parses an optional id field where "" means no selection.
func idOrNil(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return parseID(field, raw)
}

func movementInput(req dto.MovementRequest) (domain.MovementInput, error) {
	mt, err := domain.ParseMovementType(req.MovementType)
	if err != nil {
		return domain.MovementInput{}, fieldError("movementType", "Select a movement type")
	}
	in := domain.MovementInput{Type: mt, Quantity: req.Quantity}
	if in.ProductID, err = idOrNil("productId", req.ProductID); err != nil {
		return in, err
	}
	if in.SourceLocationID, err = idOrNil("sourceLocationId", req.SourceLocationID); err != nil {
		return in, err
	}
	if in.DestinationLocationID, err = idOrNil("destinationLocationId", req.DestinationLocationID); err != nil {
		return in, err
	}
	return in, nil
}

func optionalUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// RecordMovement validates the movement against its type, then writes the
// ledger entry and the inventory deltas in one transaction. A decrement that
// would leave a row below zero aborts everything with ErrConflict.
func (s *inventoryService) RecordMovement(ctx context.Context, actor *model.Profile, req dto.MovementRequest) (*dto.MovementResponse, error) {
	in, err := movementInput(req)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateMovement(in).Err(); err != nil {
		return nil, err
	}
	in = in.Normalize()

	variantID, err := parseOptionalID("variantId", req.VariantID)
	if err != nil {
		return nil, err
	}
	batchID, err := parseOptionalID("batchId", req.BatchID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fieldError("productId", "Product does not exist")
	}
	if err != nil {
		return nil, err
	}
	sourceLoc, err := s.findLocation(ctx, "sourceLocationId", in.SourceLocationID)
	if err != nil {
		return nil, err
	}
	destLoc, err := s.findLocation(ctx, "destinationLocationId", in.DestinationLocationID)
	if err != nil {
		return nil, err
	}

	m := &model.InventoryMovement{
		MovementType:          in.Type,
		ProductID:             in.ProductID,
		VariantID:             variantID,
		BatchID:               batchID,
		SourceLocationID:      optionalUUID(in.SourceLocationID),
		DestinationLocationID: optionalUUID(in.DestinationLocationID),
		Quantity:              in.Quantity,
		MovedBy:               actor.ID,
		ReferenceNumber:       req.ReferenceNumber,
		Notes:                 req.Notes,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, d := range in.Deltas() {
			slot := repository.Slot{LocationID: d.LocationID, ProductID: in.ProductID, VariantID: variantID}
			if err := s.repo.ApplyDeltaTx(tx, slot, d.Delta); err != nil {
				return err
			}
		}
		return s.repo.CreateMovementTx(tx, m)
	})
	if err != nil {
		return nil, stockConflict(err)
	}

	s.metrics.MovementRecorded(string(in.Type))
	s.cache.InvalidateDashboard(ctx)
	log.Info().
		Str("movement_id", m.ID.String()).
		Str("type", string(in.Type)).
		Str("product_id", in.ProductID.String()).
		Int("quantity", in.Quantity).
		Msg("inventory: movement recorded")

	m.Product = product
	m.SourceLocation = sourceLoc
	m.DestinationLocation = destLoc
	m.Mover = actor
	resp := movementResponse(m)
	return &resp, nil
}

// findLocation loads a selected location; uuid.Nil yields nil.
func (s *inventoryService) findLocation(ctx context.Context, field string, id uuid.UUID) (*model.Location, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	loc, err := s.locations.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fieldError(field, "Location does not exist")
	}
	return loc, err
}

// movementFilter converts query parameters. The to date is inclusive, so
// the bound passed down is the start of the following day.
func movementFilter(f dto.MovementFilter) (repository.MovementFilter, error) {
	var out repository.MovementFilter
	var err error
	if f.ProductID != "" {
		if out.ProductID, err = parseOptionalID("product_id", &f.ProductID); err != nil {
			return out, err
		}
	}
	if f.LocationID != "" {
		if out.LocationID, err = parseOptionalID("location_id", &f.LocationID); err != nil {
			return out, err
		}
	}
	if f.MovementType != "" {
		mt, err := domain.ParseMovementType(f.MovementType)
		if err != nil {
			return out, fieldError("movement_type", "Unknown movement type")
		}
		out.Type = &mt
	}
	if out.From, err = parseDate("from", &f.From); err != nil {
		return out, err
	}
	if out.To, err = parseDate("to", &f.To); err != nil {
		return out, err
	}
	if out.To != nil {
		next := out.To.AddDate(0, 0, 1)
		out.To = &next
	}
	return out, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.MovementFilter) ([]dto.MovementResponse, error) {
	f, err := movementFilter(filter)
	if err != nil {
		return nil, err
	}
	f.Limit = repository.MovementListLimit
	moves, err := s.repo.ListMovements(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, len(moves))
	for i := range moves {
		out[i] = movementResponse(&moves[i])
	}
	return out, nil
}

func (s *inventoryService) Summary(ctx context.Context) (*dto.InventorySummaryResponse, error) {
	locs, err := s.locations.List(ctx, true)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListStock(ctx, nil)
	if err != nil {
		return nil, err
	}
	summaries, lines := locationSummaries(locs, items)
	totals := domain.Totals(lines)
	return &dto.InventorySummaryResponse{
		Locations:    summaries,
		TotalItems:   totals.TotalItems,
		ItemsToOrder: totals.ItemsToOrder,
		StockStatus:  string(domain.AggregateLines(lines)),
	}, nil
}

func (s *inventoryService) ExportMovements(ctx context.Context, filter dto.MovementFilter) (*bytes.Buffer, error) {
	f, err := movementFilter(filter)
	if err != nil {
		return nil, err
	}
	f.Limit = repository.MovementExportLimit
	moves, err := s.repo.ListMovements(ctx, f)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, len(moves))
	for i := range moves {
		r := movementResponse(&moves[i])
		rows[i] = []any{
			moves[i].CreatedAt.UTC().Format(time.DateTime),
			r.MovementType,
			r.ProductName,
			deref(r.SourceLocationName),
			deref(r.DestinationLocationName),
			r.Quantity,
			r.MovedByName,
			deref(r.ReferenceNumber),
			deref(r.Notes),
		}
	}
	buf, err := infra.BuildWorkbook([]infra.Sheet{{
		Name:    "Movements",
		Headers: []string{"Date", "Type", "Product", "From", "To", "Quantity", "Moved by", "Reference", "Notes"},
		Rows:    rows,
	}})
	if err != nil {
		return nil, fmt.Errorf("export movements: %w", err)
	}
	return buf, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
