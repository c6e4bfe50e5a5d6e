package repository

import (
	"context"

	"sosstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Categories ────────────────────────────────────────────────────────────────

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func (r *categoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Model(c).Select("name", "description").Updates(c).Error
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &model.Category{}, id)
}

// ── Locations ─────────────────────────────────────────────────────────────────

type LocationRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Location, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	Create(ctx context.Context, l *model.Location) error
	Update(ctx context.Context, l *model.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type locationRepo struct{ db *gorm.DB }

func NewLocationRepository(db *gorm.DB) LocationRepository { return &locationRepo{db: db} }

func (r *locationRepo) List(ctx context.Context, activeOnly bool) ([]model.Location, error) {
	var locs []model.Location
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = true")
	}
	err := q.Order("name ASC").Find(&locs).Error
	return locs, err
}

func (r *locationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepo) Create(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *locationRepo) Update(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Model(l).Select("name", "description", "address", "is_active").Updates(l).Error
}

func (r *locationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &model.Location{}, id)
}

// deleteByID deletes one row and reports gorm.ErrRecordNotFound when
// nothing matched.
func deleteByID(db *gorm.DB, m any, id uuid.UUID) error {
	res := db.Delete(m, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
