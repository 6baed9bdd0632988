package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/events"
	"github.com/dkharitonov/task_manager/internal/middleware"
	"github.com/dkharitonov/task_manager/internal/service"
	"github.com/dkharitonov/task_manager/internal/util"
)

type AdminHandler struct {
	Admin    *service.AdminService
	Producer *events.Producer
}

// queryTime accepts RFC3339 timestamps and bare dates.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return &ts, nil
		}
	}
	return nil, apperr.Validation("invalid " + name)
}

func queryBool(c echo.Context, name string) *bool {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page := queryInt(c, "page")
	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, queryInt(c, "limit"))

	users, total, err := h.Admin.ListUsers(c.Request().Context(), service.AdminListUsersInput{
		Role:            c.QueryParam("role"),
		IsBlocked:       queryBool(c, "isBlocked"),
		IsEmailVerified: queryBool(c, "isEmailVerified"),
		Search:          c.QueryParam("search"),
	}, offset, limit)
	if err != nil {
		return err
	}
	return okPaged(c, "users", map[string]any{"users": users}, NewPagination(page, limit, total))
}

func (h *AdminHandler) GetUser(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	user, stats, err := h.Admin.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "user", map[string]any{"user": user, "stats": stats})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	admin := middleware.CurrentUser(c)

	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.Admin.DeleteUser(c.Request().Context(), admin.ID, userID); err != nil {
		return err
	}

	publishAsync(c, h.Producer, events.EventUserDeleted, userID, map[string]any{"deletedBy": admin.ID})
	return ok(c, http.StatusOK, "user deleted", nil)
}

func (h *AdminHandler) BlockUser(c echo.Context) error {
	return h.setBlocked(c, true, "user blocked")
}

func (h *AdminHandler) UnblockUser(c echo.Context) error {
	return h.setBlocked(c, false, "user unblocked")
}

func (h *AdminHandler) setBlocked(c echo.Context, blocked bool, msg string) error {
	admin := middleware.CurrentUser(c)

	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	user, err := h.Admin.SetBlocked(c.Request().Context(), admin.ID, userID, blocked)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, msg, map[string]any{"user": user})
}

func (h *AdminHandler) ListTasks(c echo.Context) error {
	page := queryInt(c, "page")
	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, queryInt(c, "limit"))

	deadlineFrom, err := queryTime(c, "deadlineFrom")
	if err != nil {
		return err
	}
	deadlineTo, err := queryTime(c, "deadlineTo")
	if err != nil {
		return err
	}

	tasks, total, err := h.Admin.ListTasks(c.Request().Context(), service.AdminListTasksInput{
		Status:       c.QueryParam("status"),
		AssigneeID:   queryUint(c, "assigneeId"),
		CreatedByID:  queryUint(c, "createdById"),
		Search:       c.QueryParam("search"),
		DeadlineFrom: deadlineFrom,
		DeadlineTo:   deadlineTo,
	}, offset, limit)
	if err != nil {
		return err
	}
	return okPaged(c, "tasks", map[string]any{"tasks": tasks}, NewPagination(page, limit, total))
}

func (h *AdminHandler) GetTask(c echo.Context) error {
	taskID, err := paramID(c, "taskId")
	if err != nil {
		return err
	}
	task, err := h.Admin.GetTask(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "task", map[string]any{"task": task})
}

func (h *AdminHandler) UserTasks(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	taskType := c.QueryParam("type")
	switch taskType {
	case "", "all":
		taskType = ""
	case "assigned", "created":
	default:
		return apperr.Validation("invalid type filter")
	}

	page := queryInt(c, "page")
	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, queryInt(c, "limit"))

	tasks, total, stats, err := h.Admin.UserTasks(c.Request().Context(), userID, taskType, offset, limit)
	if err != nil {
		return err
	}
	return okPaged(c, "user tasks", map[string]any{"tasks": tasks, "stats": stats}, NewPagination(page, limit, total))
}
