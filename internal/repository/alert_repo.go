package repository

import (
	"context"

	"sosstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertListLimit caps the full alert history returned in one call.
const AlertListLimit = 200

// AlertRepository only reads alerts and flips is_read; rows are inserted by
// database triggers.
type AlertRepository interface {
	ListUnread(ctx context.Context) ([]model.Alert, error)
	ListAll(ctx context.Context) ([]model.Alert, error)
	// MarkRead reports whether an unread alert with id existed.
	MarkRead(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkManyRead marks the given ids read and returns how many changed.
	MarkManyRead(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type alertRepo struct{ db *gorm.DB }

func NewAlertRepository(db *gorm.DB) AlertRepository { return &alertRepo{db: db} }

func (r *alertRepo) ListUnread(ctx context.Context) ([]model.Alert, error) {
	var out []model.Alert
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("Location").
		Where("is_read = false").
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *alertRepo) ListAll(ctx context.Context) ([]model.Alert, error) {
	var out []model.Alert
	err := r.db.WithContext(ctx).
		Preload("Product").Preload("Location").
		Order("created_at DESC").
		Limit(AlertListLimit).
		Find(&out).Error
	return out, err
}

func (r *alertRepo) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id = ? AND is_read = false", id).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *alertRepo) MarkManyRead(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id IN ? AND is_read = false", ids).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
