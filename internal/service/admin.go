package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/logging"
	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/repo"
	"github.com/dkharitonov/task_manager/internal/search"
)

// AdminService backs the admin panel. All callers have already passed the
// admin-role middleware.
type AdminService struct {
	Repo   repo.GormRepo
	Search *search.Tasks
}

type AdminListUsersInput struct {
	Role            string
	IsBlocked       *bool
	IsEmailVerified *bool
	Search          string
}

type AdminListTasksInput struct {
	Status       string
	AssigneeID   uint
	CreatedByID  uint
	Search       string
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
}

// UserStats summarizes a user's task involvement for the admin detail view.
type UserStats struct {
	AssignedTasks int64 `json:"assignedTasks"`
	CreatedTasks  int64 `json:"createdTasks"`
}

func (s *AdminService) ListUsers(ctx context.Context, in AdminListUsersInput, offset, limit int) ([]models.User, int64, error) {
	if in.Role != "" && in.Role != models.RoleUser && in.Role != models.RoleAdmin {
		return nil, 0, apperr.Validation("invalid role filter")
	}
	return s.Repo.ListUsers(ctx, repo.UserFilter{
		Role:            in.Role,
		IsBlocked:       in.IsBlocked,
		IsEmailVerified: in.IsEmailVerified,
		Search:          in.Search,
		Offset:          offset,
		Limit:           limit,
	})
}

func (s *AdminService) GetUser(ctx context.Context, userID uint) (*models.User, *UserStats, error) {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, err
	}
	assigned, err := s.Repo.CountAssignedTasks(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	created, err := s.Repo.CountCreatedTasks(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, &UserStats{AssignedTasks: assigned, CreatedTasks: created}, nil
}

// SetBlocked flips the block flag. Blocking an admin's own account is
// rejected so the panel cannot lock itself out.
func (s *AdminService) SetBlocked(ctx context.Context, adminID, userID uint, blocked bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "admin.block", "admin_id", adminID, "user_id", userID)

	if blocked && adminID == userID {
		return nil, apperr.Validation("cannot block your own account")
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	if user.IsBlocked == blocked {
		return user, nil
	}
	if err := s.Repo.UpdateUser(ctx, user, map[string]any{"is_blocked": blocked}); err != nil {
		l.Error("block_update_failed", "error", err)
		return nil, err
	}

	l.Info("block_update_success", "blocked", blocked)
	return user, nil
}

// DeleteUser hard-deletes an account from the panel. Admins cannot delete
// themselves.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "admin.delete_user", "admin_id", adminID, "user_id", userID)

	if adminID == userID {
		return apperr.Validation("cannot delete your own account")
	}
	if _, err := s.Repo.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	if err := s.Repo.DeleteUser(ctx, userID); err != nil {
		l.Error("user_delete_failed", "error", err)
		return err
	}

	l.Info("user_delete_success")
	return nil
}

// ListTasks is the unscoped task listing with the full admin filter set.
func (s *AdminService) ListTasks(ctx context.Context, in AdminListTasksInput, offset, limit int) ([]models.Task, int64, error) {
	if in.Status != "" && !models.ValidTaskStatus(in.Status) {
		return nil, 0, apperr.Validation("invalid task status")
	}

	f := repo.TaskFilter{
		Status:       in.Status,
		AssigneeID:   in.AssigneeID,
		CreatedByID:  in.CreatedByID,
		DeadlineFrom: in.DeadlineFrom,
		DeadlineTo:   in.DeadlineTo,
		Offset:       offset,
		Limit:        limit,
	}
	if in.Search != "" {
		if s.Search.Available() {
			ids, err := s.Search.SearchIDs(ctx, in.Search, 1000)
			if err != nil {
				logging.FromContext(ctx).Warn("task_search_fallback", "error", err)
				f.Search = in.Search
			} else {
				if len(ids) == 0 {
					return []models.Task{}, 0, nil
				}
				f.IDs = ids
			}
		} else {
			f.Search = in.Search
		}
	}

	return s.Repo.ListTasks(ctx, f)
}

// GetTask shows any task, soft-deleted ones included.
func (s *AdminService) GetTask(ctx context.Context, taskID uint) (*models.Task, error) {
	task, err := s.Repo.FindTaskByID(ctx, taskID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, err
	}
	return task, nil
}

// UserTasks lists the tasks a user is involved in, with their stats.
func (s *AdminService) UserTasks(ctx context.Context, userID uint, taskType string, offset, limit int) ([]models.Task, int64, *UserStats, error) {
	if _, err := s.Repo.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil, apperr.NotFound("user not found")
		}
		return nil, 0, nil, err
	}

	tasks, total, err := s.Repo.ListTasks(ctx, repo.TaskFilter{
		OwnerID: userID,
		Type:    taskType,
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, 0, nil, err
	}

	assigned, err := s.Repo.CountAssignedTasks(ctx, userID)
	if err != nil {
		return nil, 0, nil, err
	}
	created, err := s.Repo.CountCreatedTasks(ctx, userID)
	if err != nil {
		return nil, 0, nil, err
	}
	return tasks, total, &UserStats{AssignedTasks: assigned, CreatedTasks: created}, nil
}
