package service

import (
	"context"
	"testing"
	"time"

	"sosstock/internal/dto"
	"sosstock/internal/infra"
	"sosstock/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

var _ Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, infra.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type dashboardFixture struct {
	svc      DashboardService
	cache    *memCache
	reports  *stubReportRepo
	inv      *stubInventoryRepo
	products *stubProductRepo
	locs     *stubLocationRepo
}

func newDashboardFixture() *dashboardFixture {
	products := newStubProductRepo()
	locs := newStubLocationRepo()
	inv := newStubInventoryRepo(products, locs)
	reports := &stubReportRepo{counts: repository.DashboardCounts{
		PendingOrders:       3,
		ExpiredProducts:     1,
		CriticalAlerts:      2,
		EstimatedOrderValue: decimal.NewFromInt(120),
	}}
	cache := newMemCache()
	return &dashboardFixture{
		svc:      NewDashboardService(locs, inv, reports, cache, 15*time.Second, nil),
		cache:    cache,
		reports:  reports,
		inv:      inv,
		products: products,
		locs:     locs,
	}
}

func TestDashboard_Counters(t *testing.T) {
	f := newDashboardFixture()
	kitchen := f.locs.add("Kitchen", true)
	store := f.locs.add("Store", true)
	f.locs.add("Old shed", false)
	flour := f.products.add("Flour", 5, 10)
	milk := f.products.add("Milk", 2, 4)
	f.inv.set(kitchen.ID, flour.ID, 5)
	f.inv.set(store.ID, flour.ID, 40)
	f.inv.set(store.ID, milk.ID, 3)

	d, err := f.svc.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 48, d.TotalItems)
	assert.Equal(t, 1, d.ItemsToOrder)
	assert.Equal(t, 2, d.LocationsCount)
	assert.Equal(t, 3, d.PendingOrdersCount)
	assert.Equal(t, 1, d.ExpiredProductsCount)
	assert.Equal(t, 2, d.CriticalAlertsCount)
	assert.True(t, decimal.NewFromInt(120).Equal(d.EstimatedOrderValue))

	byName := map[string]dto.LocationSummary{}
	for _, l := range d.Locations {
		byName[l.Name] = l
	}
	assert.Equal(t, "critical", byName["Kitchen"].StockStatus)
	assert.Equal(t, "warning", byName["Store"].StockStatus)
}

func TestDashboard_CachesUnfilteredOnly(t *testing.T) {
	f := newDashboardFixture()
	f.locs.add("Kitchen", true)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.reports.calls)
	assert.Equal(t, 15*time.Second, f.cache.ttls[dashboardCacheKey])

	_, err = f.svc.Get(ctx, "kit")
	require.NoError(t, err)
	assert.Equal(t, 2, f.reports.calls)

	f.svc.InvalidateDashboard(ctx)
	_, err = f.svc.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, f.reports.calls)
}

func TestDashboard_Search(t *testing.T) {
	f := newDashboardFixture()
	kitchen := f.locs.add("Kitchen", true)
	store := f.locs.add("Dry Store", true)
	f.locs.add("Bar", true)
	saffron := f.products.add("Saffron", 1, 2)
	f.inv.set(kitchen.ID, saffron.ID, 9)

	d, err := f.svc.Get(context.Background(), "SAFF")
	require.NoError(t, err)
	require.Len(t, d.Locations, 1)
	assert.Equal(t, kitchen.ID.String(), d.Locations[0].ID)
	assert.Equal(t, 9, d.TotalItems)

	d, err = f.svc.Get(context.Background(), "store")
	require.NoError(t, err)
	require.Len(t, d.Locations, 1)
	assert.Equal(t, store.ID.String(), d.Locations[0].ID)
	assert.Equal(t, 1, d.LocationsCount)
}

func TestReportService(t *testing.T) {
	products := newStubProductRepo()
	locs := newStubLocationRepo()
	inv := newStubInventoryRepo(products, locs)
	kitchen := locs.add("Kitchen", true)
	flour := products.add("Flour", 5, 10)
	inv.set(kitchen.ID, flour.ID, 2)

	supplierName := "Mill Co"
	reports := &stubReportRepo{
		toOrder: []repository.ToOrderRow{{
			ProductID: flour.ID, ProductName: "Flour", LocationID: kitchen.ID, LocationName: "Kitchen",
			Quantity: 2, MinStockLevel: 5, WarningStockLevel: 10, SupplierName: &supplierName,
		}},
		expiring: []repository.ExpiringRow{{
			BatchID: uuid.New(), BatchNumber: "L7", ProductID: flour.ID, ProductName: "Flour",
			LocationID: kitchen.ID, LocationName: "Kitchen", Quantity: 2,
			ExpiryDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), DaysUntilExpiry: -3,
		}},
	}
	svc := NewReportService(reports, inv)
	ctx := context.Background()

	rows, err := svc.ToOrder(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mill Co", *rows[0].SupplierName)

	exp, err := svc.Expiring(ctx, 30)
	require.NoError(t, err)
	require.Len(t, exp, 1)
	assert.Equal(t, "2024-06-01", exp[0].ExpiryDate)
	assert.Equal(t, -3, exp[0].DaysUntilExpiry)

	_, err = svc.Expiring(ctx, -1)
	assert.Contains(t, fieldsOf(t, err), "days")

	buf, err := svc.InventoryWorkbook(ctx, 30)
	require.NoError(t, err)
	book, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"Stock", "To order", "Expiring"}, book.GetSheetList())
	status, err := book.GetCellValue("Stock", "G2")
	require.NoError(t, err)
	assert.Equal(t, "critical", status)
	batch, _ := book.GetCellValue("Expiring", "B2")
	assert.Equal(t, "L7", batch)
}
