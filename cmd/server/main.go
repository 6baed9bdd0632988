package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkharitonov/task_manager/internal/config"
	"github.com/dkharitonov/task_manager/internal/events"
	"github.com/dkharitonov/task_manager/internal/httpserver"
	"github.com/dkharitonov/task_manager/internal/logging"
	"github.com/dkharitonov/task_manager/internal/mailer"
	"github.com/dkharitonov/task_manager/internal/repo"
	"github.com/dkharitonov/task_manager/internal/search"
	"github.com/dkharitonov/task_manager/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	gormRepo := repo.GormRepo{DB: db}

	var notify service.Notifier
	if cfg.SMTPHost != "" {
		notify = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		logger.Warn("smtp not configured, outbound email disabled")
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	var taskSearch *search.Tasks
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch unavailable, falling back to sql search", "error", err)
		} else {
			taskSearch = &search.Tasks{ES: es, Index: cfg.ESIndex}
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", "error", err)
			rdb = nil
		}
	}

	authSvc := &service.AuthService{
		Repo:                 gormRepo,
		Notify:               notify,
		AccessSecret:         cfg.AccessSecret,
		RefreshSecret:        cfg.RefreshSecret,
		AccessTTL:            cfg.AccessTTL,
		RefreshTTL:           cfg.RefreshTTL,
		VerifyTTL:            cfg.VerifyTTL,
		ResetTTL:             cfg.ResetTTL,
		BaseURL:              cfg.AppURL,
		RequireVerifiedEmail: cfg.RequireVerifiedEmail,
	}
	taskSvc := &service.TaskService{Repo: gormRepo, Search: taskSearch}
	adminSvc := &service.AdminService{Repo: gormRepo, Search: taskSearch}

	e := httpserver.New(httpserver.Deps{
		Logger:          logger,
		Repo:            gormRepo,
		Auth:            authSvc,
		Tasks:           taskSvc,
		Admin:           adminSvc,
		Producer:        producer,
		Redis:           rdb,
		AccessSecret:    cfg.AccessSecret,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		addr := cfg.AppHost + ":" + cfg.AppPort
		logger.Info("server starting", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
}
