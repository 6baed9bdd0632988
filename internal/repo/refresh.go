package repo

import (
	"context"
	"time"

	"github.com/dkharitonov/task_manager/internal/models"
)

func (r GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// FindActiveRefreshToken looks up a non-revoked session by the exact token
// string. Expiry is not filtered here; signout revokes expired tokens the
// same way.
func (r GormRepo) FindActiveRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("token = ? AND is_revoked = ?", token, false).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r GormRepo) RevokeRefreshToken(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("is_revoked", true).Error
}

// PurgeRefreshTokens drops the user's expired or revoked rows. Called
// opportunistically from signin and signout.
func (r GormRepo) PurgeRefreshTokens(ctx context.Context, userID uint, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND (expires_at < ? OR is_revoked = ?)", userID, now, true).
		Delete(&models.RefreshToken{}).Error
}

func (r GormRepo) CountActiveRefreshTokens(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, now).
		Count(&count).Error
	return count, err
}

// DeleteOldestActiveRefreshToken evicts the single oldest active session,
// ties broken by lowest id.
func (r GormRepo) DeleteOldestActiveRefreshToken(ctx context.Context, userID uint, now time.Time) error {
	var oldest models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_revoked = ? AND expires_at > ?", userID, false, now).
		Order("created_at ASC, id ASC").
		First(&oldest).Error
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, oldest.ID).Error
}

// DeleteAllRefreshTokens force-closes every session of a user (password
// reset, account deletion).
func (r GormRepo) DeleteAllRefreshTokens(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}
