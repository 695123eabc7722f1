package taskevent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gtn1024/puratodo-sub001/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Handler struct {
	logger *zap.Logger
}

type HandlerParams struct {
	fx.In
	Logger *zap.Logger `optional:"true"`
}

func NewHandler(p HandlerParams) *Handler {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger.Named("taskevent.worker")}
}

// HandleOccurrenceCreated is the reminder hook for freshly generated
// occurrences. Malformed payloads are not retried.
func (h *Handler) HandleOccurrenceCreated(ctx context.Context, t *asynq.Task) error {
	var payload OccurrenceCreatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("invalid occurrence payload", zap.Error(err))
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.TaskID == "" {
		return fmt.Errorf("%s payload without task_id: %w", t.Type(), asynq.SkipRetry)
	}

	fields := []zap.Field{
		zap.String("task_id", payload.TaskID),
		zap.String("user_id", payload.UserID),
		zap.String("series_root_id", payload.SeriesRootID),
		zap.String("plan_date", payload.PlanDate),
		zap.String("due_date", payload.DueDate),
	}
	if payload.RemindAt != nil {
		fields = append(fields, zap.Time("remind_at", *payload.RemindAt))
	}

	h.logger.Info("occurrence created", fields...)
	return nil
}

func Register(mux *asynq.ServeMux, h *Handler) {
	mux.HandleFunc(taskname.TaskOccurrenceCreated, h.HandleOccurrenceCreated)
}
