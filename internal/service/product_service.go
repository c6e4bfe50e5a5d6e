package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/model"
	"sosstock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService interface {
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductDetailResponse, error)
	Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.ProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListSuppliers(ctx context.Context, productID uuid.UUID) ([]dto.ProductSupplierResponse, error)
	AddSupplier(ctx context.Context, productID uuid.UUID, req dto.ProductSupplierRequest) (*dto.ProductSupplierResponse, error)
	RemoveSupplier(ctx context.Context, productID, linkID uuid.UUID) error

	ListVariants(ctx context.Context, productID uuid.UUID) ([]dto.VariantResponse, error)
	AddVariant(ctx context.Context, productID uuid.UUID, req dto.VariantRequest) (*dto.VariantResponse, error)

	ListBatches(ctx context.Context, productID uuid.UUID) ([]dto.BatchResponse, error)
	AddBatch(ctx context.Context, productID uuid.UUID, req dto.BatchRequest) (*dto.BatchResponse, error)
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	inventory  repository.InventoryRepository
	cache      DashboardInvalidator
	now        func() time.Time
}

func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	inventory repository.InventoryRepository,
	cache DashboardInvalidator,
) ProductService {
	return &productService{repo: repo, categories: categories, inventory: inventory, cache: cache, now: time.Now}
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	var f repository.ProductFilter
	if filter.CategoryID != "" {
		id, err := parseID("category_id", filter.CategoryID)
		if err != nil {
			return nil, err
		}
		f.CategoryID = &id
	}
	f.Search = filter.Search

	products, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, len(products))
	for i := range products {
		out[i] = productResponse(&products[i])
	}
	return out, nil
}

// Get returns the product with its inventory across locations, its supplier
// links and the category list used by the edit form.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductDetailResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("product", err)
	}
	items, err := s.inventory.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.repo.ListSuppliers(ctx, id)
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	rows, lines, status := stockRows(items)
	resp := &dto.ProductDetailResponse{
		Product:     productResponse(p),
		Inventory:   rows,
		TotalStock:  domain.Totals(lines).TotalItems,
		StockStatus: string(status),
		Suppliers:   make([]dto.ProductSupplierResponse, len(links)),
		Categories:  make([]dto.CategoryResponse, len(cats)),
	}
	for i := range links {
		resp.Suppliers[i] = supplierLinkResponse(&links[i])
	}
	for i := range cats {
		resp.Categories[i] = categoryResponse(&cats[i])
	}
	return resp, nil
}

// productFromRequest validates the request and copies it onto p.
func productFromRequest(p *model.Product, req dto.ProductRequest) error {
	t := domain.Thresholds{Min: req.MinStockLevel, Warning: req.WarningStockLevel}
	if err := domain.ValidateThresholds(t).Err(); err != nil {
		return err
	}
	categoryID, err := parseOptionalID("category_id", req.CategoryID)
	if err != nil {
		return err
	}
	unit := req.UnitOfMeasure
	if unit == "" {
		unit = "unit"
	}
	p.Name = req.Name
	p.Description = req.Description
	p.SKU = req.SKU
	p.Barcode = req.Barcode
	p.CategoryID = categoryID
	p.UnitOfMeasure = unit
	p.HasExpiry = req.HasExpiry
	p.MinStockLevel = req.MinStockLevel
	p.WarningStockLevel = req.WarningStockLevel
	p.Category = nil
	return nil
}

func (s *productService) Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{}
	if err := productFromRequest(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, writeConflict("product", err)
	}
	resp := productResponse(p)
	return &resp, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("product", err)
	}
	if err := productFromRequest(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, writeConflict("product", err)
	}
	// Thresholds feed every stock status on the dashboard.
	s.cache.InvalidateDashboard(ctx)
	resp := productResponse(p)
	return &resp, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeConflict("product", err)
	}
	s.cache.InvalidateDashboard(ctx)
	return nil
}

// ─── Supplier links ──────────────────────────────────────────────────────────

func supplierLinkResponse(l *model.ProductSupplier) dto.ProductSupplierResponse {
	resp := dto.ProductSupplierResponse{
		ID:                l.ID.String(),
		ProductID:         l.ProductID.String(),
		SupplierID:        l.SupplierID.String(),
		VariantID:         idPtr(l.VariantID),
		SupplierReference: l.SupplierReference,
		UnitPrice:         l.UnitPrice,
		IsPreferred:       l.IsPreferred,
		LeadTimeDays:      l.LeadTimeDays,
	}
	if l.Supplier != nil {
		resp.SupplierName = l.Supplier.Name
	}
	return resp
}

func (s *productService) ListSuppliers(ctx context.Context, productID uuid.UUID) ([]dto.ProductSupplierResponse, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}
	links, err := s.repo.ListSuppliers(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductSupplierResponse, len(links))
	for i := range links {
		out[i] = supplierLinkResponse(&links[i])
	}
	return out, nil
}

func (s *productService) AddSupplier(ctx context.Context, productID uuid.UUID, req dto.ProductSupplierRequest) (*dto.ProductSupplierResponse, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}
	supplierID, err := parseID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	variantID, err := parseOptionalID("variant_id", req.VariantID)
	if err != nil {
		return nil, err
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, fieldError("unit_price", "Unit price must be 0 or more")
	}
	link := &model.ProductSupplier{
		ProductID:         productID,
		VariantID:         variantID,
		SupplierID:        supplierID,
		SupplierReference: req.SupplierReference,
		UnitPrice:         req.UnitPrice,
		IsPreferred:       req.IsPreferred,
		LeadTimeDays:      req.LeadTimeDays,
	}
	if err := s.repo.CreateSupplierLink(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fieldError("supplier_id", "Supplier does not exist")
		}
		return nil, writeConflict("supplier link", err)
	}
	resp := supplierLinkResponse(link)
	return &resp, nil
}

func (s *productService) RemoveSupplier(ctx context.Context, productID, linkID uuid.UUID) error {
	return notFound("supplier link", s.repo.DeleteSupplierLink(ctx, productID, linkID))
}

// ─── Variants ────────────────────────────────────────────────────────────────

func variantResponse(v *model.ProductVariant) dto.VariantResponse {
	return dto.VariantResponse{
		ID:          v.ID.String(),
		ProductID:   v.ProductID.String(),
		VariantName: v.VariantName,
		Attributes:  v.Attributes,
		IsActive:    v.IsActive,
	}
}

func (s *productService) ListVariants(ctx context.Context, productID uuid.UUID) ([]dto.VariantResponse, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}
	variants, err := s.repo.ListVariants(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VariantResponse, len(variants))
	for i := range variants {
		out[i] = variantResponse(&variants[i])
	}
	return out, nil
}

func (s *productService) AddVariant(ctx context.Context, productID uuid.UUID, req dto.VariantRequest) (*dto.VariantResponse, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}
	attrs := req.Attributes
	if len(attrs) == 0 || string(attrs) == "null" {
		attrs = json.RawMessage("{}")
	}
	var probe map[string]any
	if err := json.Unmarshal(attrs, &probe); err != nil {
		return nil, fieldError("attributes", "Attributes must be a JSON object")
	}
	v := &model.ProductVariant{
		ProductID:   productID,
		VariantName: req.VariantName,
		Attributes:  attrs,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.CreateVariant(ctx, v); err != nil {
		return nil, writeConflict("variant", err)
	}
	resp := variantResponse(v)
	return &resp, nil
}

// ─── Batches ─────────────────────────────────────────────────────────────────

// batchResponse sums the batch quantity over locations. A batch is expired
// once its expiry date is before today.
func batchResponse(b *model.Batch, today time.Time) dto.BatchResponse {
	resp := dto.BatchResponse{
		ID:               b.ID.String(),
		ProductID:        b.ProductID.String(),
		VariantID:        idPtr(b.VariantID),
		BatchNumber:      b.BatchNumber,
		ExpiryDate:       datePtr(b.ExpiryDate),
		ManufacturedDate: datePtr(b.ManufacturedDate),
		Notes:            b.Notes,
	}
	for _, inv := range b.Inventory {
		resp.Quantity += inv.Quantity
	}
	if b.ExpiryDate != nil && b.ExpiryDate.Before(today) {
		resp.Expired = true
	}
	return resp
}

func (s *productService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *productService) ListBatches(ctx context.Context, productID uuid.UUID) ([]dto.BatchResponse, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}
	batches, err := s.repo.ListBatches(ctx, productID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	out := make([]dto.BatchResponse, len(batches))
	for i := range batches {
		out[i] = batchResponse(&batches[i], today)
	}
	return out, nil
}

// AddBatch registers a batch and, when a location is given, the quantity of
// it held there. The batch quantity is bookkeeping only; inventory totals
// change through movements.
func (s *productService) AddBatch(ctx context.Context, productID uuid.UUID, req dto.BatchRequest) (*dto.BatchResponse, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound("product", err)
	}
	errs := domain.FieldErrors{}
	variantID, err := parseOptionalID("variant_id", req.VariantID)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDate("expiry_date", req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	manufactured, err := parseDate("manufactured_date", req.ManufacturedDate)
	if err != nil {
		return nil, err
	}
	locationID, err := parseOptionalID("location_id", req.LocationID)
	if err != nil {
		return nil, err
	}
	if p.HasExpiry && expiry == nil {
		errs.Add("expiry_date", "This product tracks expiry; set an expiry date")
	}
	if req.Quantity > 0 && locationID == nil {
		errs.Add("location_id", "Select the location holding this batch")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	b := &model.Batch{
		ProductID:        productID,
		VariantID:        variantID,
		BatchNumber:      req.BatchNumber,
		ExpiryDate:       expiry,
		ManufacturedDate: manufactured,
		Notes:            req.Notes,
	}
	var stock *model.BatchInventory
	if locationID != nil {
		stock = &model.BatchInventory{
			LocationID: *locationID,
			ProductID:  productID,
			VariantID:  variantID,
			Quantity:   req.Quantity,
		}
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.CreateBatchTx(tx, b, stock)
	})
	if err != nil {
		return nil, writeConflict("batch", err)
	}
	if stock != nil {
		b.Inventory = []model.BatchInventory{*stock}
		s.cache.InvalidateDashboard(ctx)
	}
	resp := batchResponse(b, s.today())
	return &resp, nil
}
