package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hoshizora-fansub/hoshizora/internal/app"
	"github.com/hoshizora-fansub/hoshizora/internal/auth"
	"github.com/hoshizora-fansub/hoshizora/internal/episodes"
	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/observability"
	"github.com/hoshizora-fansub/hoshizora/internal/posts"
	"github.com/hoshizora-fansub/hoshizora/internal/projects"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
	"github.com/hoshizora-fansub/hoshizora/internal/users"
	"github.com/hoshizora-fansub/hoshizora/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "hoshizora_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	resolver := grants.NewResolver(cfg.OwnerIDs)
	policy := grants.NewPolicy(grants.DashboardRoutes(), logger)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	guard := grants.Guard{Source: usersService, Resolver: resolver, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, resolver, policy, sessionManager, csrfManager)

	projectsRepo := projects.NewRepository(dbpool)
	projectsService := projects.NewService(projectsRepo, cfg.TrashRestoreWindow)
	projectsHandler := projects.NewHandler(logger, projectsService, guard)

	episodesRepo := episodes.NewRepository(dbpool)
	episodesService := episodes.NewService(episodesRepo, projectsRepo)
	episodesHandler := episodes.NewHandler(logger, episodesService, guard)

	postsRepo := posts.NewRepository(dbpool)
	postsService := posts.NewService(postsRepo)
	postsHandler := posts.NewHandler(logger, postsService, guard)

	usersHandler := users.NewHandler(logger, usersService, guard)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Guard:           guard,
		AuthHandler:     authHandler,
		PostsHandler:    postsHandler,
		ProjectsHandler: projectsHandler,
		EpisodesHandler: episodesHandler,
		UsersHandler:    usersHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
