package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/events"
	"github.com/dkharitonov/task_manager/internal/middleware"
	"github.com/dkharitonov/task_manager/internal/repo"
	"github.com/dkharitonov/task_manager/internal/service"
)

// Deps bundles everything the router needs. Producer, Redis and the search
// client inside the services may be nil; the affected features degrade.
type Deps struct {
	Logger   *slog.Logger
	Repo     repo.GormRepo
	Auth     *service.AuthService
	Tasks    *service.TaskService
	Admin    *service.AdminService
	Producer *events.Producer
	Redis    *redis.Client

	AccessSecret    []byte
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))

	e.GET("/health/live", func(c echo.Context) error {
		return ok(c, http.StatusOK, "alive", nil)
	})
	e.GET("/health/ready", func(c echo.Context) error {
		db, err := d.Repo.DB.DB()
		if err != nil || db.PingContext(c.Request().Context()) != nil {
			return c.JSON(http.StatusServiceUnavailable, Response{
				Message: "database unavailable",
				ErrCode: apperr.CodeServer,
			})
		}
		return ok(c, http.StatusOK, "ready", nil)
	})

	api := e.Group("/api/v1")
	api.GET("", func(c echo.Context) error {
		return ok(c, http.StatusOK, "task manager API v1", nil)
	})

	authH := &AuthHandler{Auth: d.Auth, Producer: d.Producer}
	authG := api.Group("/auth", middleware.RateLimit(d.Redis, d.RateLimitMax, d.RateLimitWindow))
	authG.POST("/signup", authH.Signup)
	authG.POST("/signin", authH.Signin)
	authG.POST("/signout", authH.Signout)
	authG.GET("/verify", authH.Verify)
	authG.POST("/verify/resend", authH.ResendVerification)
	authG.POST("/recovery/request", authH.RecoveryRequest)
	authG.POST("/recovery/reset", authH.RecoveryReset)

	requireAuth := middleware.RequireAuth(d.Repo, d.AccessSecret)

	meH := &MeHandler{Auth: d.Auth, Producer: d.Producer}
	meG := api.Group("/me", requireAuth)
	meG.GET("", meH.Get)
	meG.PATCH("", meH.Update)
	meG.DELETE("", meH.Delete)

	taskH := &TaskHandler{Tasks: d.Tasks}
	meG.POST("/task", taskH.Create)
	meG.GET("/task", taskH.List)
	meG.GET("/task/:taskId", taskH.Get)
	meG.PATCH("/task/:taskId", taskH.Update)
	meG.DELETE("/task/:taskId", taskH.Delete)

	adminH := &AdminHandler{Admin: d.Admin, Producer: d.Producer}
	adminG := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	adminG.GET("/user", adminH.ListUsers)
	adminG.GET("/user/:userId", adminH.GetUser)
	adminG.DELETE("/user/:userId", adminH.DeleteUser)
	adminG.PATCH("/user/:userId/block", adminH.BlockUser)
	adminG.PATCH("/user/:userId/unblock", adminH.UnblockUser)
	adminG.GET("/user/:userId/task", adminH.UserTasks)
	adminG.GET("/task", adminH.ListTasks)
	adminG.GET("/task/:taskId", adminH.GetTask)

	return e
}
