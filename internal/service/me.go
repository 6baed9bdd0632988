package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/hash"
	"github.com/dkharitonov/task_manager/internal/logging"
	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/tokens"
)

// UpdateProfileInput carries the optional profile fields. Nil means "leave
// unchanged". Changing the password requires the current one.
type UpdateProfileInput struct {
	Name            *string
	Email           *string
	AvatarURL       *string
	CurrentPassword string
	NewPassword     string
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies partial updates. An email change resets the verified
// flag and mints a fresh verification token; a password change is gated on
// the current password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "me.update", "user_id", userID)

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	var verifyToken string

	if in.Name != nil && *in.Name != user.Name {
		if *in.Name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		fields["name"] = *in.Name
	}

	if in.AvatarURL != nil && (user.AvatarURL == nil || *in.AvatarURL != *user.AvatarURL) {
		fields["avatar_url"] = *in.AvatarURL
	}

	if in.Email != nil && *in.Email != user.Email {
		if *in.Email == "" {
			return nil, apperr.Validation("email must not be empty")
		}
		taken, err := s.Repo.UserExistsByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("user with this email is already registered")
		}
		verifyToken, err = tokens.NewOpaqueToken()
		if err != nil {
			return nil, err
		}
		fields["email"] = *in.Email
		fields["is_email_verified"] = false
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, apperr.Validation("current password is required to change it")
		}
		if !hash.CheckPassword(user.PasswordHash, in.CurrentPassword) {
			l.Warn("profile_update_rejected", "reason", "bad_password")
			return nil, apperr.InvalidCredentials("current password is incorrect")
		}
		pwHash, err := hash.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = pwHash
	}

	if in.Name == nil && in.Email == nil && in.AvatarURL == nil && in.NewPassword == "" {
		return nil, apperr.Validation("no fields to update")
	}
	if len(fields) == 0 {
		// Everything submitted already matches; nothing to write.
		return user, nil
	}

	now := time.Now()
	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if err := txRepo.UpdateUser(ctx, user, fields); err != nil {
			return err
		}
		if verifyToken != "" {
			if err := txRepo.DeleteActiveVerificationTokens(ctx, user.ID, now); err != nil {
				return err
			}
			return txRepo.CreateVerificationToken(ctx, &models.EmailVerificationToken{
				UserID:    user.ID,
				Token:     verifyToken,
				ExpiresAt: now.Add(s.VerifyTTL),
			})
		}
		return nil
	})
	if err != nil {
		l.Error("profile_update_failed", "error", err)
		return nil, err
	}

	if s.Notify != nil {
		if verifyToken != "" {
			link := s.verificationLink(verifyToken)
			notifyAsync(ctx, "verification_email", func() error {
				return s.Notify.SendVerificationEmail(user.Email, user.Name, link)
			})
		}
		if _, ok := fields["password_hash"]; ok {
			notifyAsync(ctx, "password_change_email", func() error {
				return s.Notify.SendPasswordChangeEmail(user.Email, user.Name)
			})
		}
	}

	l.Info("profile_update_success", "fields", len(fields))
	return user, nil
}

// DeleteProfile removes the account after a password re-check. The deletion
// is hard; tasks created by or assigned to the user remain for history.
func (s *AuthService) DeleteProfile(ctx context.Context, userID uint, password string) error {
	l := logging.FromContext(ctx).With("svc", "me.delete", "user_id", userID)

	if password == "" {
		return apperr.Validation("password is required")
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("profile_delete_rejected", "reason", "bad_password")
		return apperr.InvalidCredentials("password is incorrect")
	}

	if err := s.Repo.DeleteUser(ctx, user.ID); err != nil {
		l.Error("profile_delete_failed", "error", err)
		return err
	}

	if s.Notify != nil {
		notifyAsync(ctx, "account_deletion_email", func() error {
			return s.Notify.SendAccountDeletionEmail(user.Email, user.Name)
		})
	}

	l.Info("profile_delete_success")
	return nil
}
