package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkravets/dashboard/internal/models"
)

// LedgerRepo is the durable record of issued refresh tokens. It is an audit
// trail; the session store alone decides liveness.
type LedgerRepo struct {
	DB *gorm.DB
}

func (r *LedgerRepo) Insert(ctx context.Context, row *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(row).Error
}

func (r *LedgerRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}

func (r *LedgerRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

func (r *LedgerRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
