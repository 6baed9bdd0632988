package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/middleware"
	"github.com/dkharitonov/task_manager/internal/service"
	"github.com/dkharitonov/task_manager/internal/util"
)

type TaskHandler struct {
	Tasks *service.TaskService
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

func queryUint(c echo.Context, name string) uint {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return uint(n)
}

type taskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	AssigneeID  *uint      `json:"assigneeId"`
}

func (h *TaskHandler) Create(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	in := service.CreateTaskInput{Deadline: req.Deadline}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.AssigneeID != nil {
		in.AssigneeID = *req.AssigneeID
	}

	task, err := h.Tasks.CreateTask(c.Request().Context(), user.ID, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, "task created", map[string]any{"task": task})
}

func (h *TaskHandler) List(c echo.Context) error {
	user := middleware.CurrentUser(c)

	page := queryInt(c, "page")
	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, queryInt(c, "limit"))

	tasks, total, err := h.Tasks.ListTasks(c.Request().Context(), user.ID, service.ListTasksInput{
		Type:   c.QueryParam("type"),
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	}, offset, limit)
	if err != nil {
		return err
	}
	return okPaged(c, "tasks", map[string]any{"tasks": tasks}, NewPagination(page, limit, total))
}

func (h *TaskHandler) Get(c echo.Context) error {
	user := middleware.CurrentUser(c)

	taskID, err := paramID(c, "taskId")
	if err != nil {
		return err
	}
	task, err := h.Tasks.GetTask(c.Request().Context(), user.ID, taskID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "task", map[string]any{"task": task})
}

func (h *TaskHandler) Update(c echo.Context) error {
	user := middleware.CurrentUser(c)

	taskID, err := paramID(c, "taskId")
	if err != nil {
		return err
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	task, err := h.Tasks.UpdateTask(c.Request().Context(), user.ID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, "task updated", map[string]any{"task": task})
}

func (h *TaskHandler) Delete(c echo.Context) error {
	user := middleware.CurrentUser(c)

	taskID, err := paramID(c, "taskId")
	if err != nil {
		return err
	}
	if err := h.Tasks.DeleteTask(c.Request().Context(), user.ID, taskID); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "task deleted", nil)
}
