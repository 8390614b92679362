package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type GeneratedContentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.GeneratedContent) ([]*types.GeneratedContent, error)
	// GetLatestSince returns the newest row matching the lookup key created at
	// or after since, or nil when none qualifies.
	GetLatestSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceID, kind, paramsKey string, since time.Time) (*types.GeneratedContent, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GeneratedContent, error)
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type generatedContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedContentRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedContentRepo {
	repoLog := baseLog.With("repo", "GeneratedContentRepo")
	return &generatedContentRepo{db: db, log: repoLog}
}

func (r *generatedContentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.GeneratedContent) ([]*types.GeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.GeneratedContent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *generatedContentRepo) GetLatestSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceID, kind, paramsKey string, since time.Time) (*types.GeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.GeneratedContent
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND source_id = ? AND kind = ? AND params_key = ? AND created_at >= ?",
			userID, sourceID, kind, paramsKey, since).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *generatedContentRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.GeneratedContent
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *generatedContentRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.GeneratedContent{}).Error; err != nil {
		return err
	}
	return nil
}
