package service

import (
	"context"
	"errors"
	"testing"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type inventoryFixture struct {
	svc      InventoryService
	inv      *stubInventoryRepo
	products *stubProductRepo
	locs     *stubLocationRepo
	cache    *stubInvalidator
	actor    *model.Profile
}

func newInventoryFixture() *inventoryFixture {
	products := newStubProductRepo()
	locs := newStubLocationRepo()
	inv := newStubInventoryRepo(products, locs)
	cache := &stubInvalidator{}
	return &inventoryFixture{
		svc:      NewInventoryService(inv, products, locs, cache, nil),
		inv:      inv,
		products: products,
		locs:     locs,
		cache:    cache,
		actor:    &model.Profile{ID: uuid.New(), Email: "ops@example.com", Role: domain.RoleOperator},
	}
}

func TestRecordMovement_AppliesDeltas(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	flour := f.products.add("Flour", 5, 10)
	store := f.locs.add("Store", true)
	kitchen := f.locs.add("Kitchen", true)

	resp, err := f.svc.RecordMovement(ctx, f.actor, dto.MovementRequest{
		MovementType:          "in",
		ProductID:             flour.ID.String(),
		DestinationLocationID: store.ID.String(),
		SourceLocationID:      kitchen.ID.String(), // ignored for in
		Quantity:              20,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.SourceLocationID)
	assert.Equal(t, "Flour", resp.ProductName)
	assert.Equal(t, 20, f.inv.qty(store.ID, flour.ID))

	_, err = f.svc.RecordMovement(ctx, f.actor, dto.MovementRequest{
		MovementType:          "transfer",
		ProductID:             flour.ID.String(),
		SourceLocationID:      store.ID.String(),
		DestinationLocationID: kitchen.ID.String(),
		Quantity:              8,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, f.inv.qty(store.ID, flour.ID))
	assert.Equal(t, 8, f.inv.qty(kitchen.ID, flour.ID))

	_, err = f.svc.RecordMovement(ctx, f.actor, dto.MovementRequest{
		MovementType:     "consumption",
		ProductID:        flour.ID.String(),
		SourceLocationID: kitchen.ID.String(),
		Quantity:         3,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, f.inv.qty(kitchen.ID, flour.ID))
	assert.Len(t, f.inv.movements, 3)
	assert.Equal(t, 3, f.cache.calls)
}

func TestRecordMovement_Validation(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	flour := f.products.add("Flour", 5, 10)
	store := f.locs.add("Store", true)

	tests := []struct {
		name  string
		req   dto.MovementRequest
		field string
	}{
		{"in without destination", dto.MovementRequest{MovementType: "in", ProductID: flour.ID.String(), Quantity: 1}, "destinationLocationId"},
		{"transfer to itself", dto.MovementRequest{MovementType: "transfer", ProductID: flour.ID.String(), SourceLocationID: store.ID.String(), DestinationLocationID: store.ID.String(), Quantity: 1}, "destinationLocationId"},
		{"out without source", dto.MovementRequest{MovementType: "out", ProductID: flour.ID.String(), Quantity: 1}, "sourceLocationId"},
		{"zero quantity", dto.MovementRequest{MovementType: "out", ProductID: flour.ID.String(), SourceLocationID: store.ID.String()}, "quantity"},
		{"no product", dto.MovementRequest{MovementType: "out", SourceLocationID: store.ID.String(), Quantity: 1}, "productId"},
		{"unknown product", dto.MovementRequest{MovementType: "out", ProductID: uuid.NewString(), SourceLocationID: store.ID.String(), Quantity: 1}, "productId"},
		{"unknown location", dto.MovementRequest{MovementType: "out", ProductID: flour.ID.String(), SourceLocationID: uuid.NewString(), Quantity: 1}, "sourceLocationId"},
		{"unknown type", dto.MovementRequest{MovementType: "teleport", ProductID: flour.ID.String(), Quantity: 1}, "movementType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordMovement(ctx, f.actor, tt.req)
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
	assert.Empty(t, f.inv.movements)
}

func TestRecordMovement_InsufficientStock(t *testing.T) {
	f := newInventoryFixture()
	flour := f.products.add("Flour", 5, 10)
	store := f.locs.add("Store", true)
	f.inv.set(store.ID, flour.ID, 2)

	_, err := f.svc.RecordMovement(context.Background(), f.actor, dto.MovementRequest{
		MovementType:     "out",
		ProductID:        flour.ID.String(),
		SourceLocationID: store.ID.String(),
		Quantity:         3,
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, f.inv.qty(store.ID, flour.ID))
	assert.Empty(t, f.inv.movements)
	assert.Zero(t, f.cache.calls)
}

func TestRecordMovement_LedgerFailureSurfaces(t *testing.T) {
	f := newInventoryFixture()
	flour := f.products.add("Flour", 5, 10)
	store := f.locs.add("Store", true)
	f.inv.failMovement = errors.New("disk full")

	_, err := f.svc.RecordMovement(context.Background(), f.actor, dto.MovementRequest{
		MovementType:          "in",
		ProductID:             flour.ID.String(),
		DestinationLocationID: store.ID.String(),
		Quantity:              1,
	})
	assert.EqualError(t, err, "disk full")
}

func TestListMovements_Filters(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	flour := f.products.add("Flour", 5, 10)
	store := f.locs.add("Store", true)
	kitchen := f.locs.add("Kitchen", true)

	record := func(req dto.MovementRequest) {
		_, err := f.svc.RecordMovement(ctx, f.actor, req)
		require.NoError(t, err)
	}
	record(dto.MovementRequest{MovementType: "in", ProductID: flour.ID.String(), DestinationLocationID: store.ID.String(), Quantity: 10})
	record(dto.MovementRequest{MovementType: "transfer", ProductID: flour.ID.String(), SourceLocationID: store.ID.String(), DestinationLocationID: kitchen.ID.String(), Quantity: 4})

	byKitchen, err := f.svc.ListMovements(ctx, dto.MovementFilter{LocationID: kitchen.ID.String()})
	require.NoError(t, err)
	require.Len(t, byKitchen, 1)
	assert.Equal(t, "transfer", byKitchen[0].MovementType)

	byType, err := f.svc.ListMovements(ctx, dto.MovementFilter{MovementType: "in"})
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	_, err = f.svc.ListMovements(ctx, dto.MovementFilter{From: "yesterday"})
	assert.Contains(t, fieldsOf(t, err), "from")
}

func TestMovementFilter_InclusiveTo(t *testing.T) {
	f, err := movementFilter(dto.MovementFilter{From: "2024-05-01", To: "2024-05-31"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", f.From.Format(dateLayout))
	assert.Equal(t, "2024-06-01", f.To.Format(dateLayout))
}

func TestSummaryAndExport(t *testing.T) {
	f := newInventoryFixture()
	ctx := context.Background()
	flour := f.products.add("Flour", 5, 10)
	salt := f.products.add("Salt", 1, 3)
	store := f.locs.add("Store", true)
	f.inv.set(store.ID, flour.ID, 5)
	f.inv.set(store.ID, salt.ID, 7)

	sum, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, sum.TotalItems)
	assert.Equal(t, 1, sum.ItemsToOrder)
	assert.Equal(t, "critical", sum.StockStatus)

	_, err = f.svc.RecordMovement(ctx, f.actor, dto.MovementRequest{MovementType: "adjustment", ProductID: salt.ID.String(), SourceLocationID: store.ID.String(), Quantity: 2})
	require.NoError(t, err)

	buf, err := f.svc.ExportMovements(ctx, dto.MovementFilter{})
	require.NoError(t, err)
	book, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Movements")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "adjustment", rows[1][1])
	assert.Equal(t, "Salt", rows[1][2])
	assert.Equal(t, "Store", rows[1][3])
}
