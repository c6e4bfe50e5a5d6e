package repository

import (
	"context"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows the order list. From/To bound created_at.
type OrderFilter struct {
	Status     *domain.OrderStatus
	Statuses   []domain.OrderStatus
	SupplierID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

type OrderRepository interface {
	// CreateTx inserts the header and its items.
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindForUpdateTx loads the order with its items and locks the header.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)

	UpdateHeaderTx(tx *gorm.DB, o *model.Order) error
	AddItemTx(tx *gorm.DB, item *model.OrderItem) error
	DeleteItemTx(tx *gorm.DB, orderID, itemID uuid.UUID) error
	SetReceivedTx(tx *gorm.DB, itemID uuid.UUID, received int) error

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	items := o.Items
	if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	if len(items) > 0 {
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
	}
	o.Items = items
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Orderer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.DestinationLocation").
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("order_id = ?", id).Order("created_at ASC").Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Preload("Supplier").Preload("Items")
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	var out []model.Order
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *orderRepo) UpdateHeaderTx(tx *gorm.DB, o *model.Order) error {
	return tx.Model(o).
		Select("supplier_id", "status", "ordered_date", "expected_delivery_date", "received_date", "notes").
		Updates(o).Error
}

func (r *orderRepo) AddItemTx(tx *gorm.DB, item *model.OrderItem) error {
	return tx.Omit(clause.Associations).Create(item).Error
}

func (r *orderRepo) DeleteItemTx(tx *gorm.DB, orderID, itemID uuid.UUID) error {
	res := tx.Where("id = ? AND order_id = ?", itemID, orderID).Delete(&model.OrderItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepo) SetReceivedTx(tx *gorm.DB, itemID uuid.UUID, received int) error {
	return tx.Model(&model.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"received_quantity": received, "updated_at": time.Now()}).Error
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
