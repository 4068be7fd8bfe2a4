package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/eventhub/eventhub/internal/app"
	"github.com/eventhub/eventhub/internal/auth"
	"github.com/eventhub/eventhub/internal/eventmgmt"
	"github.com/eventhub/eventhub/internal/eventmgmt/report"
	"github.com/eventhub/eventhub/internal/observability"
	"github.com/eventhub/eventhub/internal/platform/cache"
	"github.com/eventhub/eventhub/internal/platform/db"
	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/roles"
	"github.com/eventhub/eventhub/internal/users"
	"github.com/eventhub/eventhub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	var reports *report.Service
	var inspector jobs.QueueInspector
	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		// Synchronous report downloads only need Postgres.
		logger.Warn("redis unavailable, async reports disabled", slog.Any("error", err))
		reports = report.NewService(report.NewRepository(pool), nil, nil, logger)
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		queue := jobs.NewClient(redisOpts)
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn("queue close", slog.Any("error", err))
			}
		}()
		asynqInspector := asynq.NewInspector(redisOpts)
		defer asynqInspector.Close()
		inspector = asynqInspector
		reports = report.NewService(report.NewRepository(pool), report.NewRedisStore(redisClient, cfg.ReportTTL), queue, logger)
	}

	metrics := observability.NewMetrics()
	authorizer := rbac.NewAuthorizer(rbac.NewStore(pool), logger, metrics)
	guard := rbac.NewGuard(authorizer, logger)

	authRepo := auth.NewRepository(pool)
	codec := auth.NewCodec(cfg.JWTSecret)
	authService := auth.NewService(authRepo, codec, cfg.JWTTTL)

	rolesService := roles.NewService(roles.NewRepository(pool))
	usersService := users.NewService(users.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		AuthHandler:        auth.NewHandler(logger, authService),
		Gate:               auth.NewGate(codec, auth.NewResolver(authRepo), logger),
		EventManagement:    eventmgmt.NewHandlers(pool, reports, guard, logger),
		UsersHandler:       users.NewHandler(logger, usersService, guard),
		RolesHandler:       roles.NewHandler(logger, rolesService, guard),
		AssignmentsHandler: roles.NewAssignmentHandler(logger, rolesService, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbac.NewStore(pool), guard),
		JobHandler:         jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
