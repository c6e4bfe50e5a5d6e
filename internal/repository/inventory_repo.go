package repository

import (
	"context"
	"errors"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock is returned when a decrement would take an inventory
// row below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// MovementListLimit caps the movement history returned in one call;
// MovementExportLimit caps spreadsheet exports.
const (
	MovementListLimit   = 100
	MovementExportLimit = 10000
)

// Slot identifies one inventory row.
type Slot struct {
	LocationID uuid.UUID
	ProductID  uuid.UUID
	VariantID  *uuid.UUID
}

// MovementFilter narrows the movement ledger. LocationID matches either the
// source or the destination.
type MovementFilter struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Type       *domain.MovementType
	From       *time.Time
	To         *time.Time
	Limit      int
}

type InventoryRepository interface {
	// ListStock returns inventory rows with product, variant and location,
	// largest quantity first. A nil locationID lists every active location.
	ListStock(ctx context.Context, locationID *uuid.UUID) ([]model.InventoryItem, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.InventoryItem, error)

	// ApplyDeltaTx adds delta to the slot, creating the row on the first
	// positive movement. It locks the row for the rest of the transaction.
	ApplyDeltaTx(tx *gorm.DB, slot Slot, delta int) error
	CreateMovementTx(tx *gorm.DB, m *model.InventoryMovement) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, error)

	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) ListStock(ctx context.Context, locationID *uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	q := r.db.WithContext(ctx).
		Preload("Product").Preload("Variant").Preload("Location").
		Joins("JOIN locations ON locations.id = inventory.location_id")
	if locationID != nil {
		q = q.Where("inventory.location_id = ?", *locationID)
	} else {
		q = q.Where("locations.is_active = true")
	}
	err := q.Order("inventory.quantity DESC").Find(&items).Error
	return items, err
}

func (r *inventoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Location").Preload("Variant").
		Where("product_id = ?", productID).
		Order("quantity DESC").
		Find(&items).Error
	return items, err
}

func (r *inventoryRepo) ApplyDeltaTx(tx *gorm.DB, slot Slot, delta int) error {
	item, err := r.lockSlot(tx, slot)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta < 0 {
			return ErrInsufficientStock
		}
		item = &model.InventoryItem{
			LocationID: slot.LocationID,
			ProductID:  slot.ProductID,
			VariantID:  slot.VariantID,
			Quantity:   delta,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(item)
		if res.Error != nil || res.RowsAffected == 1 {
			return res.Error
		}
		// A concurrent first movement created the row meanwhile.
		if item, err = r.lockSlot(tx, slot); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if item.Quantity+delta < 0 {
		return ErrInsufficientStock
	}
	return tx.Model(&model.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		}).Error
}

func (r *inventoryRepo) lockSlot(tx *gorm.DB, slot Slot) (*model.InventoryItem, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("location_id = ? AND product_id = ?", slot.LocationID, slot.ProductID)
	if slot.VariantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *slot.VariantID)
	}
	var item model.InventoryItem
	if err := q.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepo) CreateMovementTx(tx *gorm.DB, m *model.InventoryMovement) error {
	return tx.Omit(clause.Associations).Create(m).Error
}

func (r *inventoryRepo) ListMovements(ctx context.Context, f MovementFilter) ([]model.InventoryMovement, error) {
	q := r.db.WithContext(ctx).
		Preload("Product").Preload("SourceLocation").Preload("DestinationLocation").Preload("Mover")
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.LocationID != nil {
		q = q.Where("(source_location_id = ? OR destination_location_id = ?)", *f.LocationID, *f.LocationID)
	}
	if f.Type != nil {
		q = q.Where("movement_type = ?", *f.Type)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = MovementListLimit
	}
	if limit > MovementExportLimit {
		limit = MovementExportLimit
	}

	var out []model.InventoryMovement
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *inventoryRepo) DB() *gorm.DB { return r.db }
