package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/types"
)

type KnowledgeDocRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*types.KnowledgeDoc) ([]*types.KnowledgeDoc, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDoc, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.KnowledgeDoc, int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type knowledgeDocRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeDocRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeDocRepo {
	return &knowledgeDocRepo{db: db, log: baseLog.With("repo", "KnowledgeDocRepo")}
}

func (r *knowledgeDocRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.KnowledgeDoc) ([]*types.KnowledgeDoc, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(docs) == 0 {
		return []*types.KnowledgeDoc{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *knowledgeDocRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDoc, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.KnowledgeDoc
	err := transaction.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *knowledgeDocRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.KnowledgeDoc, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var total int64
	if err := transaction.WithContext(ctx).Model(&types.KnowledgeDoc{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var docs []*types.KnowledgeDoc
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *knowledgeDocRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Delete(&types.KnowledgeDoc{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
