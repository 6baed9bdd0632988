package repo

import (
	"context"
	"time"

	"github.com/dkharitonov/task_manager/internal/models"
)

// Email-verification and password-reset tokens share the same lifecycle:
// at most one active row per user per kind, consumable exactly once.
// Consumed and expired rows fail the same active-token lookup, so the two
// cases are indistinguishable to callers.

func (r GormRepo) CreateVerificationToken(ctx context.Context, t *models.EmailVerificationToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r GormRepo) FindActiveVerificationToken(ctx context.Context, token string, now time.Time) (*models.EmailVerificationToken, error) {
	var t models.EmailVerificationToken
	err := r.DB.WithContext(ctx).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r GormRepo) MarkVerificationTokenUsed(ctx context.Context, id uint, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.EmailVerificationToken{}).
		Where("id = ?", id).
		Update("used_at", now).Error
}

// DeleteActiveVerificationTokens clears unused, unexpired tokens before a
// new one is minted.
func (r GormRepo) DeleteActiveVerificationTokens(ctx context.Context, userID uint, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND used_at IS NULL AND expires_at > ?", userID, now).
		Delete(&models.EmailVerificationToken{}).Error
}

// DeleteStaleVerificationTokens purges expired unused rows once the owning
// action succeeds.
func (r GormRepo) DeleteStaleVerificationTokens(ctx context.Context, userID uint, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND used_at IS NULL AND expires_at < ?", userID, now).
		Delete(&models.EmailVerificationToken{}).Error
}

func (r GormRepo) CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r GormRepo) FindActiveResetToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	var t models.PasswordResetToken
	err := r.DB.WithContext(ctx).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r GormRepo) MarkResetTokenUsed(ctx context.Context, id uint, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("id = ?", id).
		Update("used_at", now).Error
}

func (r GormRepo) DeleteActiveResetTokens(ctx context.Context, userID uint, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND used_at IS NULL AND expires_at > ?", userID, now).
		Delete(&models.PasswordResetToken{}).Error
}
