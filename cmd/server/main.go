package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/taskboard/internal/config"
	"github.com/iliyamo/taskboard/internal/database"
	"github.com/iliyamo/taskboard/internal/handler"
	"github.com/iliyamo/taskboard/internal/jobs"
	"github.com/iliyamo/taskboard/internal/logging"
	mw "github.com/iliyamo/taskboard/internal/middleware"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/router"
	"github.com/iliyamo/taskboard/internal/service"
	"github.com/iliyamo/taskboard/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logging.SlogLogger) error {
	tokens, err := utils.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DSNParts())
	if err != nil {
		return err
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		return err
	}

	var events service.EventPublisher = service.NopPublisher
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL, 0, log)
		go pub.Run(ctx)
		defer pub.Close()
		events = pub

		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, cfg.ActivityLogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn(ctx, "activity consumer stopped", "err", err)
			}
		}()
	} else {
		log.Info(ctx, "RABBITMQ_URL not set, task events disabled")
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewTokenRepo(db)
	categories := repository.NewCategoryRepo(db)
	tasks := repository.NewTaskRepo(db)

	auth := service.NewAuthService(users, sessions, tokens, cfg.BcryptCost, events, log)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn(ctx, "redis unreachable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	sched := jobs.NewScheduler(log)
	if _, err := sched.SchedulePurge(cfg.RefreshPurgeSpec, auth); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(mw.RequestLogger(log))

	deps := router.Deps{
		Auth:       handler.NewAuthHandler(auth, log),
		Users:      handler.NewUserHandler(service.NewUserService(users), auth, log),
		Categories: handler.NewCategoryHandler(service.NewCategoryService(categories, events), log),
		Tasks:      handler.NewTaskHandler(service.NewTaskService(tasks, events), log),
		Stats:      handler.NewStatsHandler(service.NewStatsService(tasks), log),
		Health:     handler.Health(db),
		Tokens:     tokens,
	}
	if rdb != nil {
		deps.RateLimit = mw.NewTokenBucket(cfg.RateLimit, rdb, log)
		deps.Cache = mw.NewUserCache(cfg.Cache, rdb)
		deps.Invalidate = mw.InvalidateUserCache(cfg.Cache, rdb)
	}
	router.RegisterRoutes(e, deps)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
