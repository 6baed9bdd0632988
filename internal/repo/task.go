package repo

import (
	"context"
	"time"

	"github.com/dkharitonov/task_manager/internal/models"
)

// TaskFilter is the query surface of the task listings. OwnerID restricts
// to tasks the user created or is assigned to (the /me listing); the
// remaining fields map to the admin filters.
type TaskFilter struct {
	OwnerID      uint
	Type         string // "assigned", "created" or "" for both (with OwnerID)
	Status       string
	AssigneeID   uint
	CreatedByID  uint
	Search       string
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
	IDs          []uint // restrict to pre-matched ids (search index results)
	Offset       int
	Limit        int
}

func (r GormRepo) CreateTask(ctx context.Context, t *models.Task) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// FindTaskByID skips soft-deleted rows unless includeDeleted is set (admin
// reads keep history visible).
func (r GormRepo) FindTaskByID(ctx context.Context, id uint, includeDeleted bool) (*models.Task, error) {
	q := r.DB.WithContext(ctx)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	var t models.Task
	if err := q.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r GormRepo) UpdateTask(ctx context.Context, t *models.Task, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(t).Updates(fields).Error
}

func (r GormRepo) SoftDeleteTask(ctx context.Context, id uint, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("deleted_at", now).Error
}

func (r GormRepo) ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Task{}).Where("deleted_at IS NULL")

	if f.OwnerID != 0 {
		switch f.Type {
		case "assigned":
			q = q.Where("assignee_id = ?", f.OwnerID)
		case "created":
			q = q.Where("created_by_id = ?", f.OwnerID)
		default:
			q = q.Where("assignee_id = ? OR created_by_id = ?", f.OwnerID, f.OwnerID)
		}
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssigneeID != 0 {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	if f.CreatedByID != 0 {
		q = q.Where("created_by_id = ?", f.CreatedByID)
	}
	if f.Search != "" {
		term := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", term, term)
	}
	if f.DeadlineFrom != nil {
		q = q.Where("deadline >= ?", *f.DeadlineFrom)
	}
	if f.DeadlineTo != nil {
		q = q.Where("deadline <= ?", *f.DeadlineTo)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := q.Order("created_at DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r GormRepo) CountAssignedTasks(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("assignee_id = ? AND deleted_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (r GormRepo) CountCreatedTasks(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("created_by_id = ? AND deleted_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// UserFilter backs the admin user listing.
type UserFilter struct {
	Role            string
	IsBlocked       *bool
	IsEmailVerified *bool
	Search          string
	Offset          int
	Limit           int
}

func (r GormRepo) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})

	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.IsBlocked != nil {
		q = q.Where("is_blocked = ?", *f.IsBlocked)
	}
	if f.IsEmailVerified != nil {
		q = q.Where("is_email_verified = ?", *f.IsEmailVerified)
	}
	if f.Search != "" {
		term := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Order("id ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
