package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/hoshizora-fansub/hoshizora/internal/jobs"
	"github.com/hoshizora-fansub/hoshizora/internal/posts"
)

// PublishDueJob promotes scheduled posts whose publish instant arrived.
// The site only renders published posts, so until this runs a due post
// stays invisible even though its date is in the past.
type PublishDueJob struct {
	Posts   *posts.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPublishDueJob wires dependencies for the publish handler.
func NewPublishDueJob(postsSvc *posts.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *PublishDueJob {
	return &PublishDueJob{Posts: postsSvc, Logger: logger, Metrics: metrics}
}

// Handle processes publish-due tasks.
func (j *PublishDueJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Posts == nil {
		return errors.New("publish due: handler not configured")
	}
	var payload PublishDuePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskPostsPublishDue)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	published, err := j.Posts.PublishDue(ctx)
	if err != nil {
		resultErr = err
		j.logger().Error("publish due posts", slog.Any("error", err))
		return resultErr
	}
	if published > 0 {
		j.logger().Info("published due posts", slog.Int("count", published))
	}
	return resultErr
}

func (j *PublishDueJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPostsPublishDue))
	}
	return slog.Default().With(slog.String("job", TaskPostsPublishDue))
}

func (j *PublishDueJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
