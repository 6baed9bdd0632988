package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/events"
	"github.com/dkharitonov/task_manager/internal/middleware"
	"github.com/dkharitonov/task_manager/internal/service"
)

type MeHandler struct {
	Auth     *service.AuthService
	Producer *events.Producer
}

func (h *MeHandler) Get(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return ok(c, http.StatusOK, "profile", map[string]any{"user": user})
}

type updateMeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	AvatarURL       *string `json:"avatarUrl"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

func (h *MeHandler) Update(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	updated, err := h.Auth.UpdateProfile(c.Request().Context(), user.ID, service.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		AvatarURL:       req.AvatarURL,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}

	if req.NewPassword != "" {
		publishAsync(c, h.Producer, events.EventPasswordChanged, user.ID, nil)
	}
	return ok(c, http.StatusOK, "profile updated", map[string]any{"user": updated})
}

type deleteMeRequest struct {
	Password string `json:"password"`
}

func (h *MeHandler) Delete(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req deleteMeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.Auth.DeleteProfile(c.Request().Context(), user.ID, req.Password); err != nil {
		return err
	}

	publishAsync(c, h.Producer, events.EventUserDeleted, user.ID, map[string]any{"email": user.Email})
	return ok(c, http.StatusOK, "account deleted", nil)
}
