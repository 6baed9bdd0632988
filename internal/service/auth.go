package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/hash"
	"github.com/dkharitonov/task_manager/internal/logging"
	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/repo"
	"github.com/dkharitonov/task_manager/internal/tokens"
)

// maxActiveRefreshTokens caps concurrent sessions per user; the oldest
// active session is evicted when a signin would exceed it.
const maxActiveRefreshTokens = 5

// AuthService coordinates the credential store, the token ledger, the token
// signer and the notifier for the signup/signin/verify/reset workflows.
type AuthService struct {
	Repo   repo.GormRepo
	Notify Notifier

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	VerifyTTL     time.Duration
	ResetTTL      time.Duration

	BaseURL string
	// RequireVerifiedEmail gates signin on a confirmed address. Policy
	// switch: earlier revisions of this workflow allowed unverified logins.
	RequireVerifiedEmail bool
}

type SigninResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

type VerifyResult struct {
	UserID          uint
	Email           string
	Name            string
	AlreadyVerified bool
}

type ResetResult struct {
	UserID uint
	Email  string
	Name   string
}

// Outcomes of the enumeration-neutral endpoints. All map to HTTP 200; the
// handler only varies the message.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeUnknownEmail
	OutcomeAlreadyVerified
)

func (s *AuthService) verificationLink(token string) string {
	return fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.BaseURL, token)
}

func (s *AuthService) resetLink(token string) string {
	return fmt.Sprintf("%s/recovery/request?token=%s", s.BaseURL, token)
}

// Signup registers a user and mints their first verification token in one
// transaction, then dispatches the verification email without waiting on it.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	if email == "" || password == "" || name == "" {
		return nil, apperr.Validation("email, password and name are required")
	}

	exists, err := s.Repo.UserExistsByEmail(ctx, email)
	if err != nil {
		l.Error("signup_failed", "reason", "db_error", "error", err)
		return nil, err
	}
	if exists {
		l.Warn("signup_rejected", "status", 409, "reason", "email_taken")
		return nil, apperr.Conflict("user with this email is already registered")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_failed", "reason", "hash_error", "error", err)
		return nil, err
	}

	verifyToken, err := tokens.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		Name:         name,
		Role:         models.RoleUser,
	}
	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if err := txRepo.CreateUser(ctx, &user); err != nil {
			return err
		}
		return txRepo.CreateVerificationToken(ctx, &models.EmailVerificationToken{
			UserID:    user.ID,
			Token:     verifyToken,
			ExpiresAt: time.Now().Add(s.VerifyTTL),
		})
	})
	if err != nil {
		l.Error("signup_failed", "reason", "db_error", "error", err)
		return nil, err
	}

	if s.Notify != nil {
		link := s.verificationLink(verifyToken)
		notifyAsync(ctx, "verification_email", func() error {
			return s.Notify.SendVerificationEmail(user.Email, user.Name, link)
		})
	}

	l.Info("signup_success", "user_id", user.ID)
	return &user, nil
}

// Signin order is fixed: lookup, password, blocked, verified. Unknown email
// and wrong password yield the same error.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signin")

	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("signin_rejected", "status", 401, "reason", "unknown_email")
			return nil, apperr.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("signin_rejected", "status", 401, "reason", "bad_password", "user_id", user.ID)
		return nil, apperr.InvalidCredentials("invalid email or password")
	}

	if user.IsBlocked {
		l.Warn("signin_rejected", "status", 403, "reason", "blocked", "user_id", user.ID)
		return nil, apperr.Blocked("user is blocked")
	}

	if s.RequireVerifiedEmail && !user.IsEmailVerified {
		l.Warn("signin_rejected", "status", 403, "reason", "email_not_verified", "user_id", user.ID)
		return nil, apperr.Forbidden("email is not verified")
	}

	accessToken, err := tokens.SignAccessToken(user, s.AccessSecret, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := tokens.SignRefreshToken(user, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return nil, err
	}

	// Purge, count, evict and insert in one transaction so the session cap
	// holds under concurrent signins.
	now := time.Now()
	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if err := txRepo.PurgeRefreshTokens(ctx, user.ID, now); err != nil {
			return err
		}
		active, err := txRepo.CountActiveRefreshTokens(ctx, user.ID, now)
		if err != nil {
			return err
		}
		if active >= maxActiveRefreshTokens {
			if err := txRepo.DeleteOldestActiveRefreshToken(ctx, user.ID, now); err != nil {
				return err
			}
		}
		return txRepo.CreateRefreshToken(ctx, &models.RefreshToken{
			UserID:    user.ID,
			Token:     refreshToken,
			ExpiresAt: now.Add(s.RefreshTTL),
		})
	})
	if err != nil {
		l.Error("signin_failed", "reason", "db_error", "error", err)
		return nil, err
	}

	l.Info("signin_success", "user_id", user.ID)
	return &SigninResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Signout revokes the session behind the refresh token. An unknown and an
// already-revoked token fail the same way.
func (s *AuthService) Signout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.signout")

	if refreshToken == "" {
		return apperr.Validation("refresh token is required")
	}

	stored, err := s.Repo.FindActiveRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("token not found or already revoked")
		}
		return err
	}

	if err := s.Repo.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return err
	}
	if err := s.Repo.PurgeRefreshTokens(ctx, stored.UserID, time.Now()); err != nil {
		// Lazy cleanup only; the revocation already took effect.
		l.Warn("signout_purge_failed", "user_id", stored.UserID, "error", err)
	}

	l.Info("signout_success", "user_id", stored.UserID)
	return nil
}

// VerifyEmail consumes a verification token. Consumed, expired and unknown
// tokens are indistinguishable. Verifying an already-verified user still
// burns the token and succeeds.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*VerifyResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	if token == "" {
		return nil, apperr.Validation("verification token is required")
	}

	var result VerifyResult
	now := time.Now()
	err := s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)

		stored, err := txRepo.FindActiveVerificationToken(ctx, token, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.InvalidToken("invalid or expired token")
			}
			return err
		}

		user, err := txRepo.FindUserByID(ctx, stored.UserID)
		if err != nil {
			return err
		}

		if user.IsEmailVerified {
			result = VerifyResult{UserID: user.ID, Email: user.Email, Name: user.Name, AlreadyVerified: true}
			return txRepo.MarkVerificationTokenUsed(ctx, stored.ID, now)
		}

		if err := txRepo.UpdateUser(ctx, user, map[string]any{"is_email_verified": true}); err != nil {
			return err
		}
		if err := txRepo.MarkVerificationTokenUsed(ctx, stored.ID, now); err != nil {
			return err
		}
		if err := txRepo.DeleteStaleVerificationTokens(ctx, user.ID, now); err != nil {
			return err
		}
		result = VerifyResult{UserID: user.ID, Email: user.Email, Name: user.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("verify_success", "user_id", result.UserID, "already_verified", result.AlreadyVerified)
	return &result, nil
}

// ResendVerification is enumeration neutral: unknown emails and already
// verified accounts both succeed without sending anything.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (Outcome, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_resend")

	if email == "" {
		return 0, apperr.Validation("email is required")
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeUnknownEmail, nil
		}
		return 0, err
	}
	if user.IsEmailVerified {
		return OutcomeAlreadyVerified, nil
	}

	verifyToken, err := tokens.NewOpaqueToken()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if err := txRepo.DeleteActiveVerificationTokens(ctx, user.ID, now); err != nil {
			return err
		}
		return txRepo.CreateVerificationToken(ctx, &models.EmailVerificationToken{
			UserID:    user.ID,
			Token:     verifyToken,
			ExpiresAt: now.Add(s.VerifyTTL),
		})
	})
	if err != nil {
		l.Error("verify_resend_failed", "reason", "db_error", "error", err)
		return 0, err
	}

	if s.Notify != nil {
		link := s.verificationLink(verifyToken)
		notifyAsync(ctx, "verification_email", func() error {
			return s.Notify.SendVerificationEmail(user.Email, user.Name, link)
		})
	}

	l.Info("verify_resend_success", "user_id", user.ID)
	return OutcomeSent, nil
}

// RequestPasswordReset mints a fresh reset token, replacing any active one.
// Unknown emails succeed neutrally; blocked users are refused.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (Outcome, error) {
	l := logging.FromContext(ctx).With("svc", "auth.recovery_request")

	if email == "" {
		return 0, apperr.Validation("email is required")
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeUnknownEmail, nil
		}
		return 0, err
	}
	if user.IsBlocked {
		return 0, apperr.Blocked("user is blocked")
	}

	resetToken, err := tokens.NewOpaqueToken()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if err := txRepo.DeleteActiveResetTokens(ctx, user.ID, now); err != nil {
			return err
		}
		return txRepo.CreateResetToken(ctx, &models.PasswordResetToken{
			UserID:    user.ID,
			Token:     resetToken,
			ExpiresAt: now.Add(s.ResetTTL),
		})
	})
	if err != nil {
		l.Error("recovery_request_failed", "reason", "db_error", "error", err)
		return 0, err
	}

	if s.Notify != nil {
		link := s.resetLink(resetToken)
		notifyAsync(ctx, "password_reset_email", func() error {
			return s.Notify.SendPasswordResetEmail(user.Email, user.Name, link)
		})
	}

	l.Info("recovery_request_success", "user_id", user.ID)
	return OutcomeSent, nil
}

// ResetPassword consumes the reset token, rehashes the password and closes
// every open session of the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*ResetResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.recovery_reset")

	if token == "" || newPassword == "" {
		return nil, apperr.Validation("token and new password are required")
	}

	var result ResetResult
	now := time.Now()
	err := s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)

		stored, err := txRepo.FindActiveResetToken(ctx, token, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.InvalidToken("invalid token")
			}
			return err
		}

		user, err := txRepo.FindUserByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		if user.IsBlocked {
			return apperr.Blocked("user is blocked")
		}

		pwHash, err := hash.HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := txRepo.UpdateUser(ctx, user, map[string]any{"password_hash": pwHash}); err != nil {
			return err
		}
		if err := txRepo.MarkResetTokenUsed(ctx, stored.ID, now); err != nil {
			return err
		}
		if err := txRepo.DeleteAllRefreshTokens(ctx, user.ID); err != nil {
			return err
		}
		if err := txRepo.DeleteActiveResetTokens(ctx, user.ID, now); err != nil {
			return err
		}
		result = ResetResult{UserID: user.ID, Email: user.Email, Name: user.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notify != nil {
		notifyAsync(ctx, "password_change_email", func() error {
			return s.Notify.SendPasswordChangeEmail(result.Email, result.Name)
		})
	}

	l.Info("recovery_reset_success", "user_id", result.UserID)
	return &result, nil
}
