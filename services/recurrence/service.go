package recurrence

import (
	"context"

	"github.com/gtn1024/puratodo-sub001/pkg/clock"
	"github.com/gtn1024/puratodo-sub001/pkg/config"
	"github.com/gtn1024/puratodo-sub001/pkg/errutil"
	"github.com/gtn1024/puratodo-sub001/services/task"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Store is the owner-scoped persistence the engine needs. FindTask returns
// nil, nil for a missing task.
type Store interface {
	FindTask(ctx context.Context, ownerID, taskID string, listID *string) (*task.Task, error)
	FindSeries(ctx context.Context, ownerID, rootID string, listID *string) ([]*task.Task, error)
	CreateTask(ctx context.Context, t *task.Task) error
	UpdateTask(ctx context.Context, ownerID, taskID string, listID *string, patch task.Patch) (*task.Task, error)
	UpdateTasks(ctx context.Context, ownerID string, ids []string, patch task.Patch) error
	NextSortOrder(ctx context.Context, ownerID, listID string, parentID *string) (int64, error)
}

// Publisher is notified after an occurrence has been inserted.
type Publisher interface {
	OccurrenceCreated(ctx context.Context, occurrence *task.Task) error
}

type Service struct {
	store     Store
	clock     clock.Clock
	node      *snowflake.Node
	publisher Publisher
	logger    *zap.Logger
	timezone  string
}

type Params struct {
	fx.In
	Store     Store
	Clock     clock.Clock
	Node      *snowflake.Node
	Config    *config.Config `optional:"true"`
	Publisher Publisher      `optional:"true"`
	Logger    *zap.Logger    `optional:"true"`
}

func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := p.Clock
	if c == nil {
		c = clock.New()
	}

	timezone := DefaultTimezone
	if p.Config != nil && p.Config.Recurrence.DefaultTimezone != "" {
		timezone = p.Config.Recurrence.DefaultTimezone
	}

	return &Service{
		store:     p.Store,
		clock:     c,
		node:      p.Node,
		publisher: p.Publisher,
		logger:    logger.Named("recurrence"),
		timezone:  timezone,
	}
}

type UpdateRequest struct {
	OwnerID string
	TaskID  string
	// ListID optionally restricts the task and its series to one list.
	ListID *string
	Scope  Scope
	Patch  task.Patch
}

// UpdateTask applies req.Patch to one task, cascades recurrence fields to
// later occurrences when req.Scope is ScopeFuture, and generates the next
// occurrence when the task becomes completed. If generation fails the
// update itself has still been persisted.
func (s *Service) UpdateTask(ctx context.Context, req UpdateRequest) (*task.Task, error) {
	span := trace.SpanFromContext(ctx)
	logger := s.logger.With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("task_id", req.TaskID),
		zap.String("user_id", req.OwnerID),
	)

	if len(req.Patch) == 0 {
		return nil, errutil.BadRequest("At least one field must be provided", nil)
	}

	scope := req.Scope
	if scope == "" {
		scope = ScopeSingle
	}

	previous, err := s.store.FindTask(ctx, req.OwnerID, req.TaskID, req.ListID)
	if err != nil {
		logger.Error("failed to load task", zap.Error(err))
		return nil, errutil.Internal("failed to load task", err)
	}
	if previous == nil {
		return nil, errutil.NotFound("Task not found", nil)
	}

	updated, err := s.store.UpdateTask(ctx, req.OwnerID, req.TaskID, req.ListID, req.Patch)
	if err != nil {
		logger.Error("failed to update task", zap.Error(err))
		return nil, errutil.Internal("Failed to update task", err)
	}

	recurrencePatch := req.Patch.Recurrence()
	if scope == ScopeFuture && len(recurrencePatch) > 0 {
		if err := s.propagateToFuture(ctx, req.OwnerID, previous, updated, recurrencePatch, req.ListID); err != nil {
			logger.Error("failed to propagate recurrence change", zap.Error(err))
			return nil, err
		}
	}

	if completed, ok := req.Patch.Completed(); ok && completed && !previous.Completed {
		if _, err := s.GenerateNextOccurrence(ctx, req.OwnerID, updated, req.Patch.ListScope(req.ListID)); err != nil {
			logger.Error("task updated but next occurrence failed", zap.Error(err))
			return nil, err
		}
	}

	return updated, nil
}

// propagateToFuture copies patch to every other series member dated on or
// after the task's pre-update occurrence date. Members without a date are
// included.
func (s *Service) propagateToFuture(ctx context.Context, ownerID string, previous, updated *task.Task, patch task.Patch, listID *string) error {
	series, err := s.store.FindSeries(ctx, ownerID, SeriesRootID(updated), listID)
	if err != nil {
		return errutil.Internal("failed to load series", err)
	}

	cutoff := OccurrenceDate(previous)
	var ids []string
	for _, member := range series {
		if member.ID == updated.ID {
			continue
		}
		if cutoff != "" {
			if d := OccurrenceDate(member); d != "" && d < cutoff {
				continue
			}
		}
		ids = append(ids, member.ID)
	}

	if len(ids) == 0 {
		return nil
	}

	if err := s.store.UpdateTasks(ctx, ownerID, ids, patch); err != nil {
		return errutil.Internal("failed to update future occurrences", err)
	}

	s.logger.Debug("recurrence change propagated",
		zap.String("task_id", updated.ID),
		zap.Int("occurrences", len(ids)),
	)
	return nil
}

// Series returns every occurrence of the task's series ordered by date.
func (s *Service) Series(ctx context.Context, ownerID, taskID string, listID *string) ([]*task.Task, error) {
	t, err := s.load(ctx, ownerID, taskID, listID)
	if err != nil {
		return nil, err
	}

	series, err := s.store.FindSeries(ctx, ownerID, SeriesRootID(t), listID)
	if err != nil {
		return nil, errutil.Internal("failed to load series", err)
	}

	SortByOccurrence(series)
	return series, nil
}

func (s *Service) load(ctx context.Context, ownerID, taskID string, listID *string) (*task.Task, error) {
	t, err := s.store.FindTask(ctx, ownerID, taskID, listID)
	if err != nil {
		return nil, errutil.Internal("failed to load task", err)
	}
	if t == nil {
		return nil, errutil.NotFound("Task not found", nil)
	}
	return t, nil
}

func (s *Service) resolve(t *task.Task) *Config {
	return resolveConfig(t, s.timezone)
}

func (s *Service) publishOccurrence(ctx context.Context, occurrence *task.Task) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.OccurrenceCreated(ctx, occurrence); err != nil {
		s.logger.Warn("failed to publish occurrence",
			zap.String("occurrence_id", occurrence.ID),
			zap.Error(err),
		)
	}
}
