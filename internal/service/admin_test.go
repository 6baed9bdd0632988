package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/repo"
)

func newTestAdmin(t *testing.T) (*AdminService, repo.GormRepo, *models.User) {
	t.Helper()
	r := newTestDB(t)
	admin := &models.User{Email: "admin@example.com", PasswordHash: "x", Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, r.CreateUser(context.Background(), admin))
	return &AdminService{Repo: r}, r, admin
}

func TestAdminListUsersFilters(t *testing.T) {
	svc, r, _ := newTestAdmin(t)
	ctx := context.Background()

	blocked := seedServiceUser(t, r, "blocked@example.com")
	require.NoError(t, r.UpdateUser(ctx, blocked, map[string]any{"is_blocked": true}))
	seedServiceUser(t, r, "normal@example.com")

	all, total, err := svc.ListUsers(ctx, AdminListUsersInput{}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	yes := true
	onlyBlocked, total, err := svc.ListUsers(ctx, AdminListUsersInput{IsBlocked: &yes}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "blocked@example.com", onlyBlocked[0].Email)

	admins, _, err := svc.ListUsers(ctx, AdminListUsersInput{Role: models.RoleAdmin}, 0, 20)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	_, _, err = svc.ListUsers(ctx, AdminListUsersInput{Role: "superuser"}, 0, 20)
	require.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAdminGetUserWithStats(t *testing.T) {
	svc, r, _ := newTestAdmin(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	tasks := &TaskService{Repo: r}
	_, err := tasks.CreateTask(ctx, u.ID, CreateTaskInput{Title: "one"})
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, u.ID, CreateTaskInput{Title: "two"})
	require.NoError(t, err)

	user, stats, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, user.Email)
	require.EqualValues(t, 2, stats.AssignedTasks)
	require.EqualValues(t, 2, stats.CreatedTasks)

	_, _, err = svc.GetUser(ctx, 999)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestAdminBlockUnblockFlipsSignin(t *testing.T) {
	authSvc, _ := newTestAuth(t)
	ctx := context.Background()
	admin := &models.User{Email: "admin@example.com", PasswordHash: "x", Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, authSvc.Repo.CreateUser(ctx, admin))
	adminSvc := &AdminService{Repo: authSvc.Repo}

	user := signupVerified(t, authSvc, "a@example.com", "password")

	_, err := adminSvc.SetBlocked(ctx, admin.ID, user.ID, true)
	require.NoError(t, err)

	_, err = authSvc.Signin(ctx, "a@example.com", "password")
	require.True(t, apperr.Is(err, apperr.CodeBlocked))

	_, err = adminSvc.SetBlocked(ctx, admin.ID, user.ID, false)
	require.NoError(t, err)

	_, err = authSvc.Signin(ctx, "a@example.com", "password")
	require.NoError(t, err)
}

func TestAdminCannotBlockSelf(t *testing.T) {
	svc, _, admin := newTestAdmin(t)
	_, err := svc.SetBlocked(context.Background(), admin.ID, admin.ID, true)
	require.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAdminDeleteUser(t *testing.T) {
	svc, r, admin := newTestAdmin(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	require.NoError(t, svc.DeleteUser(ctx, admin.ID, u.ID))
	_, err := r.FindUserByID(ctx, u.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = svc.DeleteUser(ctx, admin.ID, u.ID)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	svc, _, admin := newTestAdmin(t)
	err := svc.DeleteUser(context.Background(), admin.ID, admin.ID)
	require.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestAdminSeesSoftDeletedTask(t *testing.T) {
	svc, r, _ := newTestAdmin(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	tasks := &TaskService{Repo: r}
	task, err := tasks.CreateTask(ctx, u.ID, CreateTaskInput{Title: "history"})
	require.NoError(t, err)
	require.NoError(t, tasks.DeleteTask(ctx, u.ID, task.ID))

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)

	// Soft-deleted rows stay out of the listing.
	listed, total, err := svc.ListTasks(ctx, AdminListTasksInput{}, 0, 20)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, listed)
}

func TestAdminListTasksDeadlineWindow(t *testing.T) {
	svc, r, _ := newTestAdmin(t)
	ctx := context.Background()
	u := seedServiceUser(t, r, "a@example.com")

	tasks := &TaskService{Repo: r}
	soon := time.Now().Add(24 * time.Hour)
	far := time.Now().Add(30 * 24 * time.Hour)
	_, err := tasks.CreateTask(ctx, u.ID, CreateTaskInput{Title: "soon", Deadline: &soon})
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, u.ID, CreateTaskInput{Title: "far", Deadline: &far})
	require.NoError(t, err)

	from := time.Now().Add(7 * 24 * time.Hour)
	listed, total, err := svc.ListTasks(ctx, AdminListTasksInput{DeadlineFrom: &from}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "far", listed[0].Title)

	to := time.Now().Add(7 * 24 * time.Hour)
	listed, total, err = svc.ListTasks(ctx, AdminListTasksInput{DeadlineTo: &to}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "soon", listed[0].Title)
}

func TestAdminUserTasks(t *testing.T) {
	svc, r, _ := newTestAdmin(t)
	ctx := context.Background()
	a := seedServiceUser(t, r, "a@example.com")
	b := seedServiceUser(t, r, "b@example.com")

	tasks := &TaskService{Repo: r}
	_, err := tasks.CreateTask(ctx, a.ID, CreateTaskInput{Title: "own"})
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, a.ID, CreateTaskInput{Title: "delegated", AssigneeID: b.ID})
	require.NoError(t, err)

	list, total, stats, err := svc.UserTasks(ctx, a.ID, "", 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	require.EqualValues(t, 1, stats.AssignedTasks)
	require.EqualValues(t, 2, stats.CreatedTasks)

	_, _, _, err = svc.UserTasks(ctx, 999, "", 0, 20)
	require.True(t, apperr.Is(err, apperr.CodeNotFound))
}
