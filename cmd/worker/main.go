package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hoshizora-fansub/hoshizora/internal/app"
	jobmetrics "github.com/hoshizora-fansub/hoshizora/internal/jobs"
	"github.com/hoshizora-fansub/hoshizora/internal/posts"
	"github.com/hoshizora-fansub/hoshizora/internal/projects"
	"github.com/hoshizora-fansub/hoshizora/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := jobmetrics.NewMetrics(nil)

	projectsService := projects.NewService(projects.NewRepository(pool), cfg.TrashRestoreWindow)
	postsService := posts.NewService(posts.NewRepository(pool))

	purgeJob := jobs.NewTrashPurgeJob(projectsService, logger, metrics)
	publishJob := jobs.NewPublishDueJob(postsService, logger, metrics)

	purgeTask, err := jobs.NewTrashPurgeTask(time.Now().UTC())
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}
	publishTask, err := jobs.NewPublishDueTask(time.Now().UTC())
	if err != nil {
		logger.Error("build publish task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTrashPurge, Handler: purgeJob.Handle},
			{Type: jobs.TaskPostsPublishDue, Handler: publishJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			// Hourly purge keeps the trash close to the restore window.
			{Spec: "0 * * * *", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			// Scheduled posts go live within a minute of their date.
			{Spec: "* * * * *", Task: publishTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
