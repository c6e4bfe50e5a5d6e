package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/model"
	"sosstock/internal/repository"
	"sosstock/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Profiles ─────────────────────────────────────────────────────────────────

type stubProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

var _ repository.ProfileRepository = (*stubProfileRepo)(nil)

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)}
}

func (r *stubProfileRepo) Create(_ context.Context, p *model.Profile) error {
	for _, existing := range r.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Email = strings.ToLower(p.Email)
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *stubProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProfileRepo) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProfileRepo) List(_ context.Context) ([]model.Profile, error) {
	out := make([]model.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *stubProfileRepo) Update(_ context.Context, p *model.Profile) error {
	if _, ok := r.profiles[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *stubProfileRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	p, ok := r.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PasswordHash = hash
	return nil
}

// ── Categories & locations ───────────────────────────────────────────────────

type stubCategoryRepo struct {
	cats map[uuid.UUID]*model.Category
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{cats: make(map[uuid.UUID]*model.Category)}
}

func (r *stubCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(r.cats))
	for _, c := range r.cats {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.cats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	for _, existing := range r.cats {
		if existing.Name == c.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.cats[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	cp := *c
	r.cats[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.cats[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.cats, id)
	return nil
}

type stubLocationRepo struct {
	locs map[uuid.UUID]*model.Location
	// referenced locations fail deletion like a foreign key would.
	referenced map[uuid.UUID]bool
}

var _ repository.LocationRepository = (*stubLocationRepo)(nil)

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{locs: make(map[uuid.UUID]*model.Location), referenced: make(map[uuid.UUID]bool)}
}

func (r *stubLocationRepo) add(name string, active bool) *model.Location {
	l := &model.Location{ID: uuid.New(), Name: name, IsActive: active}
	r.locs[l.ID] = l
	return l
}

func (r *stubLocationRepo) List(_ context.Context, activeOnly bool) ([]model.Location, error) {
	out := make([]model.Location, 0, len(r.locs))
	for _, l := range r.locs {
		if activeOnly && !l.IsActive {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	l, ok := r.locs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubLocationRepo) Create(_ context.Context, l *model.Location) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.locs[l.ID] = &cp
	return nil
}

func (r *stubLocationRepo) Update(_ context.Context, l *model.Location) error {
	cp := *l
	r.locs[l.ID] = &cp
	return nil
}

func (r *stubLocationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.locs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	if r.referenced[id] {
		return gorm.ErrForeignKeyViolated
	}
	delete(r.locs, id)
	return nil
}

// ── Suppliers ────────────────────────────────────────────────────────────────

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) add(name string, email *string) *model.Supplier {
	s := &model.Supplier{ID: uuid.New(), Name: name, Email: email, IsActive: true}
	r.suppliers[s.ID] = s
	return s
}

func (r *stubSupplierRepo) List(_ context.Context, activeOnly bool) ([]model.Supplier, error) {
	out := make([]model.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *stubSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.suppliers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.suppliers, id)
	return nil
}

// ── Products ─────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	links    map[uuid.UUID]*model.ProductSupplier
	variants []model.ProductVariant
	batches  []model.Batch
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		links:    make(map[uuid.UUID]*model.ProductSupplier),
	}
}

func (r *stubProductRepo) add(name string, min, warning int) *model.Product {
	p := &model.Product{ID: uuid.New(), Name: name, UnitOfMeasure: "unit", MinStockLevel: min, WarningStockLevel: warning}
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) ListSuppliers(_ context.Context, productID uuid.UUID) ([]model.ProductSupplier, error) {
	var out []model.ProductSupplier
	for _, l := range r.links {
		if l.ProductID == productID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubProductRepo) CreateSupplierLink(_ context.Context, link *model.ProductSupplier) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	cp := *link
	r.links[link.ID] = &cp
	return nil
}

func (r *stubProductRepo) DeleteSupplierLink(_ context.Context, productID, linkID uuid.UUID) error {
	l, ok := r.links[linkID]
	if !ok || l.ProductID != productID {
		return gorm.ErrRecordNotFound
	}
	delete(r.links, linkID)
	return nil
}

func (r *stubProductRepo) FindSupplierLink(_ context.Context, supplierID, productID uuid.UUID) (*model.ProductSupplier, error) {
	for _, l := range r.links {
		if l.SupplierID == supplierID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) ListVariants(_ context.Context, productID uuid.UUID) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, v := range r.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *stubProductRepo) CreateVariant(_ context.Context, v *model.ProductVariant) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.variants = append(r.variants, *v)
	return nil
}

func (r *stubProductRepo) ListBatches(_ context.Context, productID uuid.UUID) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubProductRepo) CreateBatchTx(_ *gorm.DB, b *model.Batch, stock *model.BatchInventory) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	if stock != nil {
		stock.BatchID = b.ID
		cp.Inventory = []model.BatchInventory{*stock}
	}
	r.batches = append(r.batches, cp)
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

// ── Inventory ────────────────────────────────────────────────────────────────

type stubInventoryRepo struct {
	products  *stubProductRepo
	locations *stubLocationRepo
	stock     map[repository.Slot]int
	movements []model.InventoryMovement
	// failMovement makes CreateMovementTx fail, to check that callers
	// surface the error.
	failMovement error
}

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

func newStubInventoryRepo(products *stubProductRepo, locations *stubLocationRepo) *stubInventoryRepo {
	return &stubInventoryRepo{products: products, locations: locations, stock: make(map[repository.Slot]int)}
}

func (r *stubInventoryRepo) set(loc, product uuid.UUID, qty int) {
	r.stock[repository.Slot{LocationID: loc, ProductID: product}] = qty
}

func (r *stubInventoryRepo) qty(loc, product uuid.UUID) int {
	return r.stock[repository.Slot{LocationID: loc, ProductID: product}]
}

func (r *stubInventoryRepo) items(keep func(repository.Slot) bool) []model.InventoryItem {
	var out []model.InventoryItem
	for slot, q := range r.stock {
		if !keep(slot) {
			continue
		}
		it := model.InventoryItem{
			ID:         uuid.New(),
			LocationID: slot.LocationID,
			ProductID:  slot.ProductID,
			VariantID:  slot.VariantID,
			Quantity:   q,
		}
		if p, ok := r.products.products[slot.ProductID]; ok {
			it.Product = p
		}
		if l, ok := r.locations.locs[slot.LocationID]; ok {
			it.Location = l
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity > out[j].Quantity })
	return out
}

func (r *stubInventoryRepo) ListStock(_ context.Context, locationID *uuid.UUID) ([]model.InventoryItem, error) {
	return r.items(func(s repository.Slot) bool {
		if locationID != nil {
			return s.LocationID == *locationID
		}
		l, ok := r.locations.locs[s.LocationID]
		return ok && l.IsActive
	}), nil
}

func (r *stubInventoryRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.InventoryItem, error) {
	return r.items(func(s repository.Slot) bool { return s.ProductID == productID }), nil
}

func (r *stubInventoryRepo) ApplyDeltaTx(_ *gorm.DB, slot repository.Slot, delta int) error {
	// Variant pointers differ between calls; key by value.
	key := repository.Slot{LocationID: slot.LocationID, ProductID: slot.ProductID}
	if r.stock[key]+delta < 0 {
		return repository.ErrInsufficientStock
	}
	r.stock[key] += delta
	return nil
}

func (r *stubInventoryRepo) CreateMovementTx(_ *gorm.DB, m *model.InventoryMovement) error {
	if r.failMovement != nil {
		return r.failMovement
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubInventoryRepo) ListMovements(_ context.Context, f repository.MovementFilter) ([]model.InventoryMovement, error) {
	var out []model.InventoryMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if f.Type != nil && m.MovementType != *f.Type {
			continue
		}
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.LocationID != nil {
			src := m.SourceLocationID != nil && *m.SourceLocationID == *f.LocationID
			dst := m.DestinationLocationID != nil && *m.DestinationLocationID == *f.LocationID
			if !src && !dst {
				continue
			}
		}
		m.Product = r.products.products[m.ProductID]
		if m.SourceLocationID != nil {
			m.SourceLocation = r.locations.locs[*m.SourceLocationID]
		}
		if m.DestinationLocationID != nil {
			m.DestinationLocation = r.locations.locs[*m.DestinationLocationID]
		}
		out = append(out, m)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) DB() *gorm.DB { return nil }

// ── Orders ───────────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	suppliers *stubSupplierRepo
	// duplicates is how many CreateTx calls fail with a reference collision.
	duplicates int
	refsTried  []string
}

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

func newStubOrderRepo(suppliers *stubSupplierRepo) *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order), suppliers: suppliers}
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	r.refsTried = append(r.refsTried, o.ReferenceNumber)
	if r.duplicates > 0 {
		r.duplicates--
		return gorm.ErrDuplicatedKey
	}
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := cloneOrder(o)
	if s, ok := r.suppliers.suppliers[o.SupplierID]; ok {
		cp.Supplier = s
	}
	return cp, nil
}

func (r *stubOrderRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				match = match || o.Status == s
			}
			if !match {
				continue
			}
		}
		if f.SupplierID != nil && o.SupplierID != *f.SupplierID {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateHeaderTx(_ *gorm.DB, o *model.Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.SupplierID = o.SupplierID
	stored.Status = o.Status
	stored.OrderedDate = o.OrderedDate
	stored.ExpectedDeliveryDate = o.ExpectedDeliveryDate
	stored.ReceivedDate = o.ReceivedDate
	stored.Notes = o.Notes
	return nil
}

func (r *stubOrderRepo) AddItemTx(_ *gorm.DB, item *model.OrderItem) error {
	o, ok := r.orders[item.OrderID]
	if !ok {
		return gorm.ErrForeignKeyViolated
	}
	item.ID = uuid.New()
	o.Items = append(o.Items, *item)
	return nil
}

func (r *stubOrderRepo) DeleteItemTx(_ *gorm.DB, orderID, itemID uuid.UUID) error {
	o, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i, it := range o.Items {
		if it.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) SetReceivedTx(_ *gorm.DB, itemID uuid.UUID, received int) error {
	for _, o := range r.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].ReceivedQuantity = received
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

// ── Alerts ───────────────────────────────────────────────────────────────────

type stubAlertRepo struct {
	mu     sync.Mutex
	alerts []model.Alert
	err    error
}

var _ repository.AlertRepository = (*stubAlertRepo)(nil)

func (r *stubAlertRepo) add(sev domain.Severity, read bool) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := model.Alert{ID: uuid.New(), AlertType: domain.AlertLowStock, Severity: sev, IsRead: read, Message: "stock low", CreatedAt: time.Now()}
	r.alerts = append(r.alerts, a)
	return a.ID
}

func (r *stubAlertRepo) ListUnread(_ context.Context) ([]model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []model.Alert
	for _, a := range r.alerts {
		if !a.IsRead {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAlertRepo) ListAll(_ context.Context) ([]model.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Alert(nil), r.alerts...), nil
}

func (r *stubAlertRepo) MarkRead(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == id && !r.alerts[i].IsRead {
			r.alerts[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAlertRepo) MarkManyRead(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range r.alerts {
		if want[r.alerts[i].ID] && !r.alerts[i].IsRead {
			r.alerts[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// ── Reports ──────────────────────────────────────────────────────────────────

type stubReportRepo struct {
	counts   repository.DashboardCounts
	toOrder  []repository.ToOrderRow
	expiring []repository.ExpiringRow
	calls    int
}

var _ repository.ReportRepository = (*stubReportRepo)(nil)

func (r *stubReportRepo) DashboardCounts(_ context.Context) (*repository.DashboardCounts, error) {
	r.calls++
	c := r.counts
	return &c, nil
}

func (r *stubReportRepo) ProductsToOrder(_ context.Context) ([]repository.ToOrderRow, error) {
	return r.toOrder, nil
}

func (r *stubReportRepo) ExpiringBatches(_ context.Context, _ int) ([]repository.ExpiringRow, error) {
	return r.expiring, nil
}

// ── Side channels ────────────────────────────────────────────────────────────

type stubEmailQueue struct {
	jobs []worker.EmailJob
}

var _ EmailQueue = (*stubEmailQueue)(nil)

func (q *stubEmailQueue) EnqueueEmail(_ context.Context, job worker.EmailJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type stubInvalidator struct {
	calls int
}

var _ DashboardInvalidator = (*stubInvalidator)(nil)

func (s *stubInvalidator) InvalidateDashboard(context.Context) { s.calls++ }
