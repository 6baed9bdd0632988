package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/repo"
)

func newTestTasks(t *testing.T) (*TaskService, repo.GormRepo) {
	t.Helper()
	r := newTestDB(t)
	return &TaskService{Repo: r}, r
}

func seedServiceUser(t *testing.T, r repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Name: "User", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestCreateTaskDefaultsAssigneeToCreator(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	task, err := svc.CreateTask(ctx, u.ID, CreateTaskInput{Title: "Write report"})
	require.NoError(t, err)
	require.Equal(t, u.ID, task.AssigneeID)
	require.Equal(t, u.ID, task.CreatedByID)
	require.Equal(t, models.TaskStatusNew, task.Status)
}

func TestCreateTaskValidates(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	_, err := svc.CreateTask(ctx, u.ID, CreateTaskInput{})
	require.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = svc.CreateTask(ctx, u.ID, CreateTaskInput{Title: "x", Status: "BOGUS"})
	require.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = svc.CreateTask(ctx, u.ID, CreateTaskInput{Title: "x", AssigneeID: 999})
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestGetTaskHiddenFromStrangers(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	owner := seedServiceUser(t, r, "owner@example.com")
	stranger := seedServiceUser(t, r, "stranger@example.com")

	task, err := svc.CreateTask(ctx, owner.ID, CreateTaskInput{Title: "secret"})
	require.NoError(t, err)

	_, err = svc.GetTask(ctx, stranger.ID, task.ID)
	require.True(t, apperr.Is(err, apperr.CodeNotFound),
		"strangers get 404, not 403")

	got, err := svc.GetTask(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	require.Equal(t, task.ID, got.ID)
}

func TestAssigneeCanTouchTask(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	creator := seedServiceUser(t, r, "creator@example.com")
	assignee := seedServiceUser(t, r, "assignee@example.com")

	task, err := svc.CreateTask(ctx, creator.ID, CreateTaskInput{
		Title: "handover", AssigneeID: assignee.ID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTask(ctx, assignee.ID, task.ID, UpdateTaskInput{
		Status: strPtr(models.TaskStatusInProgress),
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusInProgress, updated.Status)
}

func TestSoftDeleteHidesTask(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	task, err := svc.CreateTask(ctx, u.ID, CreateTaskInput{Title: "doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, u.ID, task.ID))

	_, err = svc.GetTask(ctx, u.ID, task.ID)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = svc.DeleteTask(ctx, u.ID, task.ID)
	require.True(t, apperr.Is(err, apperr.CodeNotFound),
		"double delete is a 404")

	// Row survives for admin reads.
	row, err := r.FindTaskByID(ctx, task.ID, true)
	require.NoError(t, err)
	require.NotNil(t, row.DeletedAt)
}

func TestListTasksFilters(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	a := seedServiceUser(t, r, "a@example.com")
	b := seedServiceUser(t, r, "b@example.com")

	_, err := svc.CreateTask(ctx, a.ID, CreateTaskInput{Title: "mine"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, a.ID, CreateTaskInput{Title: "delegated", AssigneeID: b.ID})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, b.ID, CreateTaskInput{Title: "theirs"})
	require.NoError(t, err)

	all, total, err := svc.ListTasks(ctx, a.ID, ListTasksInput{}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)

	created, total, err := svc.ListTasks(ctx, a.ID, ListTasksInput{Type: "created"}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, created, 2)

	assigned, total, err := svc.ListTasks(ctx, b.ID, ListTasksInput{Type: "assigned"}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, assigned, 2)

	_, _, err = svc.ListTasks(ctx, a.ID, ListTasksInput{Status: "BOGUS"}, 0, 20)
	require.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestListTasksSQLSearchFallback(t *testing.T) {
	svc, r := newTestTasks(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	_, err := svc.CreateTask(ctx, u.ID, CreateTaskInput{Title: "quarterly report"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, u.ID, CreateTaskInput{Title: "grocery run"})
	require.NoError(t, err)

	found, total, err := svc.ListTasks(ctx, u.ID, ListTasksInput{Search: "report"}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "quarterly report", found[0].Title)
}
