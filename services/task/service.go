package task

import (
	"context"

	"github.com/gtn1024/puratodo-sub001/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	store  *Store
	node   *snowflake.Node
	logger *zap.Logger
}

type Params struct {
	fx.In
	Store  *Store
	Node   *snowflake.Node
	Logger *zap.Logger `optional:"true"`
}

func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:  p.Store,
		node:   p.Node,
		logger: logger.Named("task.service"),
	}
}

// Create inserts t for ownerID at the end of its sibling list. Recurrence
// fields are stored as given; the series link is written lazily later.
func (s *Service) Create(ctx context.Context, ownerID string, t *Task) (*Task, error) {
	if t.ParentID != nil {
		parent, err := s.store.FindTask(ctx, ownerID, *t.ParentID, nil)
		if err != nil {
			return nil, errutil.Internal("failed to load parent task", err)
		}
		if parent == nil {
			return nil, errutil.NotFound("Parent task not found", nil)
		}
		if parent.ListID != t.ListID {
			return nil, errutil.BadRequest("Parent task must be in the same list", nil)
		}
	}

	sortOrder, err := s.store.NextSortOrder(ctx, ownerID, t.ListID, t.ParentID)
	if err != nil {
		return nil, errutil.Internal("failed to compute sort order", err)
	}

	t.ID = s.node.Generate().String()
	t.UserID = ownerID
	t.SortOrder = sortOrder

	if err := s.store.CreateTask(ctx, t); err != nil {
		s.logger.Error("failed to create task", zap.String("user_id", ownerID), zap.Error(err))
		return nil, errutil.Internal("failed to create task", err)
	}

	s.logger.Debug("task created",
		zap.String("task_id", t.ID),
		zap.String("list_id", t.ListID),
		zap.Bool("recurring", t.IsRecurring()),
	)
	return t, nil
}

func (s *Service) Get(ctx context.Context, ownerID, taskID string, listID *string) (*Task, error) {
	t, err := s.store.FindTask(ctx, ownerID, taskID, listID)
	if err != nil {
		return nil, errutil.Internal("failed to load task", err)
	}
	if t == nil {
		return nil, errutil.NotFound("Task not found", nil)
	}
	return t, nil
}
