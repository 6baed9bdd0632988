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

// TaskService owns the task lifecycle. The search index is optional; when it
// is unavailable listings fall back to SQL matching.
type TaskService struct {
	Repo   repo.GormRepo
	Search *search.Tasks
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Deadline    *time.Time
	AssigneeID  uint
}

// UpdateTaskInput mirrors CreateTaskInput with nil meaning "unchanged".
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Deadline    *time.Time
	AssigneeID  *uint
}

type ListTasksInput struct {
	Type   string // "assigned", "created" or ""
	Status string
	Search string
	Page   int
	Limit  int
}

// canTouch reports whether the user may read or mutate the task.
func canTouch(t *models.Task, userID uint) bool {
	return t.CreatedByID == userID || t.AssigneeID == userID
}

func (s *TaskService) indexAsync(ctx context.Context, t *models.Task) {
	if !s.Search.Available() {
		return
	}
	l := logging.FromContext(ctx)
	task := *t
	go func() {
		if err := s.Search.IndexTask(context.Background(), &task); err != nil {
			l.Error("task_index_failed", "task_id", task.ID, "error", err)
		}
	}()
}

// CreateTask creates a task owned by userID. The assignee defaults to the
// creator and must exist when given explicitly.
func (s *TaskService) CreateTask(ctx context.Context, userID uint, in CreateTaskInput) (*models.Task, error) {
	l := logging.FromContext(ctx).With("svc", "task.create", "user_id", userID)

	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	status := in.Status
	if status == "" {
		status = models.TaskStatusNew
	}
	if !models.ValidTaskStatus(status) {
		return nil, apperr.Validation("invalid task status")
	}

	assigneeID := in.AssigneeID
	if assigneeID == 0 {
		assigneeID = userID
	} else if assigneeID != userID {
		if _, err := s.Repo.FindUserByID(ctx, assigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("assignee not found")
			}
			return nil, err
		}
	}

	task := models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Deadline:    in.Deadline,
		AssigneeID:  assigneeID,
		CreatedByID: userID,
	}
	if err := s.Repo.CreateTask(ctx, &task); err != nil {
		l.Error("task_create_failed", "error", err)
		return nil, err
	}

	s.indexAsync(ctx, &task)
	l.Info("task_create_success", "task_id", task.ID)
	return &task, nil
}

// GetTask returns a live task visible to userID.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*models.Task, error) {
	task, err := s.Repo.FindTaskByID(ctx, taskID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, err
	}
	if !canTouch(task, userID) {
		return nil, apperr.NotFound("task not found")
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uint, in UpdateTaskInput) (*models.Task, error) {
	l := logging.FromContext(ctx).With("svc", "task.update", "user_id", userID, "task_id", taskID)

	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Status != nil {
		if !models.ValidTaskStatus(*in.Status) {
			return nil, apperr.Validation("invalid task status")
		}
		fields["status"] = *in.Status
	}
	if in.Deadline != nil {
		fields["deadline"] = *in.Deadline
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID != userID {
			if _, err := s.Repo.FindUserByID(ctx, *in.AssigneeID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.NotFound("assignee not found")
				}
				return nil, err
			}
		}
		fields["assignee_id"] = *in.AssigneeID
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	if err := s.Repo.UpdateTask(ctx, task, fields); err != nil {
		l.Error("task_update_failed", "error", err)
		return nil, err
	}

	s.indexAsync(ctx, task)
	l.Info("task_update_success")
	return task, nil
}

// DeleteTask soft-deletes; the row stays for the admin views, the search
// document is removed.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	l := logging.FromContext(ctx).With("svc", "task.delete", "user_id", userID, "task_id", taskID)

	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.Repo.SoftDeleteTask(ctx, task.ID, now); err != nil {
		l.Error("task_delete_failed", "error", err)
		return err
	}
	task.DeletedAt = &now

	s.indexAsync(ctx, task)
	l.Info("task_delete_success")
	return nil
}

// ListTasks returns the caller's tasks. With the search index up, a search
// term is resolved to ids there first; otherwise SQL LIKE applies.
func (s *TaskService) ListTasks(ctx context.Context, userID uint, in ListTasksInput, offset, limit int) ([]models.Task, int64, error) {
	f := repo.TaskFilter{
		OwnerID: userID,
		Type:    in.Type,
		Status:  in.Status,
		Offset:  offset,
		Limit:   limit,
	}
	if in.Status != "" && !models.ValidTaskStatus(in.Status) {
		return nil, 0, apperr.Validation("invalid task status")
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
