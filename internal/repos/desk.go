package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

type DeskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, desks []*types.Desk) ([]*types.Desk, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Desk, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Desk, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	// UpdateStatus rewrites only the three status columns (plus updated_at)
	// in a single UPDATE, leaving the rest of the row untouched.
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.GenerationStatus) error

	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type deskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeskRepo(db *gorm.DB, baseLog *logger.Logger) DeskRepo {
	return &deskRepo{db: db, log: baseLog.With("repo", "DeskRepo")}
}

func (r *deskRepo) Create(ctx context.Context, tx *gorm.DB, desks []*types.Desk) ([]*types.Desk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(desks) == 0 {
		return []*types.Desk{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&desks).Error; err != nil {
		return nil, err
	}
	return desks, nil
}

func (r *deskRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Desk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var desk types.Desk
	err := transaction.WithContext(ctx).First(&desk, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &desk, nil
}

func (r *deskRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Desk, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var total int64
	if err := transaction.WithContext(ctx).Model(&types.Desk{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var desks []*types.Desk
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&desks).Error; err != nil {
		return nil, 0, err
	}
	return desks, total, nil
}

func (r *deskRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	delete(updates, "id")
	delete(updates, "user_id")
	delete(updates, "created_at")
	res := transaction.WithContext(ctx).Model(&types.Desk{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *deskRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.GenerationStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&types.Desk{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"phase":       status.Phase,
			"status_text": status.StatusText,
			"message":     status.Message,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *deskRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Delete(&types.Desk{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
