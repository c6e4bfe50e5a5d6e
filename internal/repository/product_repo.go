package repository

import (
	"context"

	"sosstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows the product list. Zero values mean no filter.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
}

// ProductRepository covers products and the rows that hang off them:
// supplier links, variants and batches.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListSuppliers(ctx context.Context, productID uuid.UUID) ([]model.ProductSupplier, error)
	CreateSupplierLink(ctx context.Context, link *model.ProductSupplier) error
	DeleteSupplierLink(ctx context.Context, productID, linkID uuid.UUID) error
	// FindSupplierLink returns the link used to prefill an order line price.
	FindSupplierLink(ctx context.Context, supplierID, productID uuid.UUID) (*model.ProductSupplier, error)

	ListVariants(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error)
	CreateVariant(ctx context.Context, v *model.ProductVariant) error

	ListBatches(ctx context.Context, productID uuid.UUID) ([]model.Batch, error)
	// CreateBatchTx inserts the batch and, when stock is non-nil, its
	// per-location quantity.
	CreateBatchTx(tx *gorm.DB, b *model.Batch, stock *model.BatchInventory) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Preload("Category")
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR sku ILIKE ? OR barcode = ?", like, like, filter.Search)
	}
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Model(p).
		Select("name", "description", "sku", "barcode", "category_id", "unit_of_measure",
			"has_expiry", "min_stock_level", "warning_stock_level").
		Updates(p).Error
}

// Delete removes the product. Dependent rows go with it through the foreign
// key cascade of the schema.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &model.Product{}, id)
}

func (r *productRepo) ListSuppliers(ctx context.Context, productID uuid.UUID) ([]model.ProductSupplier, error) {
	var links []model.ProductSupplier
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("product_id = ?", productID).
		Order("is_preferred DESC, created_at ASC").
		Find(&links).Error
	return links, err
}

func (r *productRepo) CreateSupplierLink(ctx context.Context, link *model.ProductSupplier) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *productRepo) DeleteSupplierLink(ctx context.Context, productID, linkID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", linkID, productID).
		Delete(&model.ProductSupplier{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) FindSupplierLink(ctx context.Context, supplierID, productID uuid.UUID) (*model.ProductSupplier, error) {
	var link model.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND product_id = ?", supplierID, productID).
		Order("is_preferred DESC, created_at ASC").
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *productRepo) ListVariants(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error) {
	var vs []model.ProductVariant
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("variant_name ASC").Find(&vs).Error
	return vs, err
}

func (r *productRepo) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *productRepo) ListBatches(ctx context.Context, productID uuid.UUID) ([]model.Batch, error) {
	var bs []model.Batch
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("product_id = ?", productID).
		Order("expiry_date ASC NULLS LAST").
		Find(&bs).Error
	return bs, err
}

func (r *productRepo) CreateBatchTx(tx *gorm.DB, b *model.Batch, stock *model.BatchInventory) error {
	if err := tx.Omit("Inventory").Create(b).Error; err != nil {
		return err
	}
	if stock == nil {
		return nil
	}
	stock.BatchID = b.ID
	return tx.Create(stock).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }
