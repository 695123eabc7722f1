package taskevent

import (
	"context"

	"github.com/gtn1024/puratodo-sub001/pkg/taskname"
	"github.com/gtn1024/puratodo-sub001/services/task"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Publisher enqueues occurrence notifications on the task-events queue.
type Publisher struct {
	client *asynq.Client
	logger *zap.Logger
}

type PublisherParams struct {
	fx.In
	Client *asynq.Client
	Logger *zap.Logger `optional:"true"`
}

func NewPublisher(p PublisherParams) *Publisher {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: p.Client, logger: logger.Named("taskevent")}
}

func (p *Publisher) OccurrenceCreated(ctx context.Context, occurrence *task.Task) error {
	t, err := NewOccurrenceCreatedTask(occurrence)
	if err != nil {
		return err
	}

	info, err := p.client.EnqueueContext(ctx, t,
		asynq.Queue(taskname.QueueTaskEvents),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	p.logger.Debug("enqueued occurrence event",
		zap.String("task_id", occurrence.ID),
		zap.String("job_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}
