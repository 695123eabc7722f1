package task

import (
	"context"

	"github.com/gtn1024/puratodo-sub001/pkg/db/option"
	"github.com/gtn1024/puratodo-sub001/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Store is the owner-scoped task persistence used by the task and
// recurrence services. Every query filters by user_id.
type Store struct {
	repo repository.Repository[Task]
}

type StoreParams struct {
	fx.In
	DB *gorm.DB
}

func NewStore(p StoreParams) *Store {
	return &Store{repo: repository.ProvideStore[Task](p.DB)}
}

func ownedBy(ownerID string) option.QueryOption {
	return option.ApplyOperator(option.Condition{
		Field:    ColUserID,
		Operator: option.EQ,
		Value:    ownerID,
	})
}

func listScope(listID *string) string {
	if listID == nil {
		return ""
	}
	return *listID
}

// FindTask returns nil, nil when the task does not exist, belongs to someone
// else or sits outside listID.
func (s *Store) FindTask(ctx context.Context, ownerID, taskID string, listID *string) (*Task, error) {
	if taskID == "" {
		return nil, nil
	}
	return s.repo.FindOne(ctx, &Task{ID: taskID, ListID: listScope(listID)}, ownedBy(ownerID))
}

// FindSeries returns the root and every task linked to it, oldest first.
func (s *Store) FindSeries(ctx context.Context, ownerID, rootID string, listID *string) ([]*Task, error) {
	return s.repo.Find(ctx, &Task{ListID: listScope(listID)},
		ownedBy(ownerID),
		option.Where("(id = ? OR recurrence_source_task_id = ?)", rootID, rootID),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "asc",
		}),
	)
}

func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	return s.repo.Create(ctx, t)
}

// UpdateTask applies patch to a single task and returns its new state. A
// patch that moves the task to another list is reloaded from that list.
func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID string, listID *string, patch Patch) (*Task, error) {
	if taskID == "" {
		return nil, gorm.ErrRecordNotFound
	}

	rows, err := s.repo.UpdateWhere(ctx, &Task{ID: taskID, ListID: listScope(listID)}, map[string]any(patch), ownedBy(ownerID))
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	updated, err := s.FindTask(ctx, ownerID, taskID, patch.ListScope(listID))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return updated, nil
}

// UpdateTasks applies the same patch to every id in ids.
func (s *Store) UpdateTasks(ctx context.Context, ownerID string, ids []string, patch Patch) error {
	if len(ids) == 0 || len(patch) == 0 {
		return nil
	}

	_, err := s.repo.UpdateWhere(ctx, &Task{}, map[string]any(patch),
		ownedBy(ownerID),
		option.ApplyOperator(option.Condition{
			Field:    "id",
			Operator: option.IN,
			Value:    ids,
		}),
	)
	return err
}

// NextSortOrder is one past the highest sort_order among siblings sharing
// owner, list and parent. The first sibling gets 0.
func (s *Store) NextSortOrder(ctx context.Context, ownerID, listID string, parentID *string) (int64, error) {
	opts := []option.QueryOption{
		ownedBy(ownerID),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  ColSortOrder,
			OrderBy: "desc",
			Allow:   map[string]bool{ColSortOrder: true},
		}),
	}

	query := &Task{ListID: listID, ParentID: parentID}
	if parentID == nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    ColParentID,
			Operator: option.IsNull,
		}))
	}

	last, err := s.repo.FindOne(ctx, query, opts...)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return last.SortOrder + 1, nil
}
