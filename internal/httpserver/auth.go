package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/events"
	"github.com/dkharitonov/task_manager/internal/logging"
	"github.com/dkharitonov/task_manager/internal/service"
)

type AuthHandler struct {
	Auth     *service.AuthService
	Producer *events.Producer
}

// publishAsync fires a lifecycle event without joining the request. A nil
// producer is a no-op.
func publishAsync(c echo.Context, p *events.Producer, event string, userID uint, payload map[string]any) {
	if p == nil {
		return
	}
	l := logging.FromContext(c.Request().Context())
	if payload == nil {
		payload = map[string]any{}
	}
	payload["event"] = event
	payload["userId"] = userID
	go func() {
		if err := p.Publish(context.Background(), strconv.FormatUint(uint64(userID), 10), payload); err != nil {
			l.Error("event_publish_failed", "event", event, "error", err)
		}
	}()
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	user, err := h.Auth.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}

	publishAsync(c, h.Producer, events.EventUserRegistered, user.ID, map[string]any{"email": user.Email})
	return ok(c, http.StatusCreated, "user registered, verification email sent", map[string]any{"user": user})
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	res, err := h.Auth.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	publishAsync(c, h.Producer, events.EventUserSignedIn, res.User.ID, nil)
	return ok(c, http.StatusOK, "signed in", map[string]any{
		"user": res.User,
		"tokens": map[string]string{
			"accessToken":  res.AccessToken,
			"refreshToken": res.RefreshToken,
		},
	})
}

type signoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Signout(c echo.Context) error {
	var req signoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := h.Auth.Signout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "signed out", nil)
}

func (h *AuthHandler) Verify(c echo.Context) error {
	res, err := h.Auth.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return err
	}

	msg := "email verified"
	if res.AlreadyVerified {
		msg = "email already verified"
	}
	return ok(c, http.StatusOK, msg, map[string]any{
		"userId":          res.UserID,
		"email":           res.Email,
		"name":            res.Name,
		"isEmailVerified": true,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	outcome, err := h.Auth.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	msg := "if the email is registered, a verification link has been sent"
	if outcome == service.OutcomeAlreadyVerified {
		msg = "email already verified"
	}
	return ok(c, http.StatusOK, msg, nil)
}

func (h *AuthHandler) RecoveryRequest(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if _, err := h.Auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return ok(c, http.StatusOK, "if the email is registered, a reset link has been sent", nil)
}

type recoveryResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) RecoveryReset(c echo.Context) error {
	var req recoveryResetRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	res, err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		return err
	}

	publishAsync(c, h.Producer, events.EventPasswordChanged, res.UserID, nil)
	return ok(c, http.StatusOK, "password changed, sign in again", map[string]any{
		"userId": res.UserID,
		"email":  res.Email,
		"name":   res.Name,
	})
}
