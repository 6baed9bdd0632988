package models

import (
	"time"
)

// Role values stored on User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Task.Status values.
const (
	TaskStatusNew        = "NEW"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDone       = "DONE"
	TaskStatusArchived   = "ARCHIVED"
)

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusNew, TaskStatusInProgress, TaskStatusDone, TaskStatusArchived:
		return true
	}
	return false
}

type User struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash    string    `gorm:"not null"                 json:"-"`
	Name            string    `gorm:"not null"                 json:"name"`
	Role            string    `gorm:"not null;default:user"    json:"role"`
	AvatarURL       *string   `json:"avatarUrl"`
	IsEmailVerified bool      `gorm:"not null;default:false"   json:"isEmailVerified"`
	IsBlocked       bool      `gorm:"not null;default:false"   json:"isBlocked"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RefreshToken is one login session. Active means not revoked and not
// expired; at most five active rows exist per user.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	UserID    uint      `gorm:"index;not null"                json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null;size:512" json:"-"`
	ExpiresAt time.Time `gorm:"not null"                      json:"expires_at"`
	IsRevoked bool      `gorm:"not null;default:false"        json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailVerificationToken is a single-use opaque token; UsedAt nil means
// still consumable.
type EmailVerificationToken struct {
	ID        uint       `gorm:"primaryKey"                    json:"id"`
	UserID    uint       `gorm:"index;not null"                json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null;size:128" json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                      json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// PasswordResetToken mirrors EmailVerificationToken for the recovery flow.
type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey"                    json:"id"`
	UserID    uint       `gorm:"index;not null"                json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null;size:128" json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                      json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Task keeps a manual deletedAt column instead of gorm's soft delete so
// admin reads can still see deleted rows.
type Task struct {
	ID          uint       `gorm:"primaryKey"           json:"id"`
	Title       string     `gorm:"not null"             json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"not null;default:NEW" json:"status"`
	Deadline    *time.Time `json:"deadline"`
	AssigneeID  uint       `gorm:"index;not null"       json:"assigneeId"`
	CreatedByID uint       `gorm:"index;not null"       json:"createdById"`
	DeletedAt   *time.Time `gorm:"index"                json:"deletedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
