package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault carries time-sensitive jobs, publishing above all.
	QueueDefault = "default"
	// QueueMaintenance carries housekeeping that can wait behind publishing.
	QueueMaintenance = "maintenance"
	// TaskTrashPurge permanently removes projects whose restore window closed.
	TaskTrashPurge = "trash:purge"
	// TaskPostsPublishDue flips scheduled posts whose date arrived.
	TaskPostsPublishDue = "posts:publish_due"
)

// TrashPurgePayload carries scheduling metadata for the purge run.
type TrashPurgePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTrashPurgeTask constructs an Asynq task for the trash purge.
func NewTrashPurgeTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(TrashPurgePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrashPurge, body, asynq.Queue(QueueMaintenance)), nil
}

// PublishDuePayload carries scheduling metadata for the publish run.
type PublishDuePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewPublishDueTask constructs an Asynq task for publishing due posts.
func NewPublishDueTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(PublishDuePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPostsPublishDue, body, asynq.Queue(QueueDefault)), nil
}
