package dao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "barista-web/pkg/common/errors"
	"barista-web/pkg/core/registration/model"
	"barista-web/pkg/core/registration/repository/dao"
)

const maxRecent = 500

type GormAttemptRepository struct {
	db *gorm.DB
}

var _ dao.AttemptRepository = (*GormAttemptRepository)(nil)

func NewGormAttemptRepository(db *gorm.DB) *GormAttemptRepository {
	return &GormAttemptRepository{db: db}
}

// Record inserts one audit row. A missing ID is filled with a fresh UUID.
func (r *GormAttemptRepository) Record(ctx context.Context, attempt model.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&attempt).Error
	})
	if err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.ErrDuplicateEntry
		}
		return fmt.Errorf("%w: attempt insert failed", apperrors.WrapGormError(err))
	}
	return nil
}

// Recent returns the newest attempts first.
func (r *GormAttemptRepository) Recent(ctx context.Context, limit int) ([]model.Attempt, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Select("id", "username", "outcome", "status_code", "client_ip", "created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: attempt query failed", apperrors.WrapGormError(err))
	}
	return attempts, nil
}

func (r *GormAttemptRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.WrapGormError(err)
	}
	return sqlDB.PingContext(ctx)
}
