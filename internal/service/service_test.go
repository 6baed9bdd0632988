package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/repo"
)

// fakeNotifier records dispatched mails; safe for the fire-and-forget
// goroutines.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	Kind  string
	Email string
	Link  string
}

func (f *fakeNotifier) record(kind, email, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{Kind: kind, Email: email, Link: link})
	return nil
}

func (f *fakeNotifier) SendVerificationEmail(email, name, link string) error {
	return f.record("verification", email, link)
}

func (f *fakeNotifier) SendPasswordResetEmail(email, name, link string) error {
	return f.record("reset", email, link)
}

func (f *fakeNotifier) SendPasswordChangeEmail(email, name string) error {
	return f.record("password_change", email, "")
}

func (f *fakeNotifier) SendAccountDeletionEmail(email, name string) error {
	return f.record("deletion", email, "")
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestDB(t *testing.T) repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.EmailVerificationToken{},
		&models.PasswordResetToken{},
		&models.Task{},
	))
	return repo.GormRepo{DB: db}
}

func newTestAuth(t *testing.T) (*AuthService, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	svc := &AuthService{
		Repo:                 newTestDB(t),
		Notify:               notifier,
		AccessSecret:         []byte("access-secret"),
		RefreshSecret:        []byte("refresh-secret"),
		AccessTTL:            15 * time.Minute,
		RefreshTTL:           7 * 24 * time.Hour,
		VerifyTTL:            24 * time.Hour,
		ResetTTL:             time.Hour,
		BaseURL:              "http://localhost:8080",
		RequireVerifiedEmail: true,
	}
	return svc, notifier
}

// signupVerified registers a user and flips the verified flag directly.
func signupVerified(t *testing.T, svc *AuthService, email, password string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := svc.Signup(ctx, email, password, "Test User")
	require.NoError(t, err)
	require.NoError(t, svc.Repo.UpdateUser(ctx, user, map[string]any{"is_email_verified": true}))
	user.IsEmailVerified = true
	return user
}

// storedVerificationToken fetches the latest unused verification token row
// straight from the database, standing in for reading the email.
func storedVerificationToken(t *testing.T, r repo.GormRepo, userID uint) string {
	t.Helper()
	var tok models.EmailVerificationToken
	err := r.DB.Where("user_id = ? AND used_at IS NULL", userID).
		Order("id DESC").First(&tok).Error
	require.NoError(t, err)
	return tok.Token
}

func storedResetToken(t *testing.T, r repo.GormRepo, userID uint) string {
	t.Helper()
	var tok models.PasswordResetToken
	err := r.DB.Where("user_id = ? AND used_at IS NULL", userID).
		Order("id DESC").First(&tok).Error
	require.NoError(t, err)
	return tok.Token
}

func activeRefreshCount(t *testing.T, r repo.GormRepo, userID uint) int64 {
	t.Helper()
	n, err := r.CountActiveRefreshTokens(context.Background(), userID, time.Now())
	require.NoError(t, err)
	return n
}
