package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/hoshizora-fansub/hoshizora/internal/jobs"
	"github.com/hoshizora-fansub/hoshizora/internal/projects"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// TrashPurgeJob hard-deletes projects that sat in the trash past the
// restore window. Running it on a schedule keeps the window promise: what
// the dashboard no longer shows as restorable eventually stops existing.
type TrashPurgeJob struct {
	Projects *projects.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewTrashPurgeJob wires dependencies for the purge handler.
func NewTrashPurgeJob(projectsSvc *projects.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *TrashPurgeJob {
	return &TrashPurgeJob{Projects: projectsSvc, Logger: logger, Metrics: metrics}
}

// Handle processes trash purge tasks.
func (j *TrashPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Projects == nil {
		return errors.New("trash purge: handler not configured")
	}
	var payload TrashPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTrashPurge)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	purged, err := j.Projects.PurgeExpired(ctx)
	if err != nil {
		resultErr = err
		j.logger().Error("purge expired projects", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddPurged(purged)
	if purged > 0 {
		j.logger().Info("purged expired projects", slog.Int64("count", purged))
	}
	return resultErr
}

func (j *TrashPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTrashPurge))
	}
	return slog.Default().With(slog.String("job", TaskTrashPurge))
}

func (j *TrashPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
