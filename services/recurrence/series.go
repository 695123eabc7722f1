package recurrence

import (
	"context"
	"slices"

	"github.com/gtn1024/puratodo-sub001/pkg/clock"
	"github.com/gtn1024/puratodo-sub001/pkg/errutil"
	"github.com/gtn1024/puratodo-sub001/services/task"

	"go.uber.org/zap"
)

// SeriesRootID is the id of the first task of t's series.
func SeriesRootID(t *task.Task) string {
	if t.RecurrenceSourceTaskID != nil && *t.RecurrenceSourceTaskID != "" {
		return *t.RecurrenceSourceTaskID
	}
	return t.ID
}

// OccurrenceDate is the anchor used to order and dedupe occurrences: plan
// date, else due date, else the creation date. It is "" only when none of
// them is a valid date.
func OccurrenceDate(t *task.Task) string {
	if d := deref(t.PlanDate); IsValidDate(d) {
		return d
	}
	if d := deref(t.DueDate); IsValidDate(d) {
		return d
	}
	if t.CreatedAt.IsZero() {
		return ""
	}
	return FormatDate(t.CreatedAt)
}

// SortByOccurrence orders tasks by anchor date, keeping store order for ties.
func SortByOccurrence(tasks []*task.Task) {
	slices.SortStableFunc(tasks, func(a, b *task.Task) int {
		da, db := OccurrenceDate(a), OccurrenceDate(b)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})
}

// EnsureSeriesLink makes t the root of its own series when it is not linked
// yet. Calling it again is a no-op.
func (s *Service) EnsureSeriesLink(ctx context.Context, ownerID string, t *task.Task, listID *string) (*task.Task, error) {
	if t.RecurrenceSourceTaskID != nil && *t.RecurrenceSourceTaskID != "" {
		return t, nil
	}

	linked, err := s.store.UpdateTask(ctx, ownerID, t.ID, listID, task.Patch{
		task.ColRecurrenceSourceTaskID: t.ID,
	})
	if err != nil {
		return nil, errutil.Internal("Failed to link recurrence source task", err)
	}
	return linked, nil
}

// GenerateNextOccurrence inserts the occurrence following current, unless
// the series is exhausted or a later or same-dated occurrence already
// exists. It returns the inserted task, or nil when nothing was generated.
func (s *Service) GenerateNextOccurrence(ctx context.Context, ownerID string, current *task.Task, listID *string) (*task.Task, error) {
	cfg := s.resolve(current)
	if cfg == nil {
		return nil, nil
	}

	logger := s.logger.With(zap.String("task_id", current.ID), zap.String("user_id", ownerID))

	linked, err := s.EnsureSeriesLink(ctx, ownerID, current, listID)
	if err != nil {
		return nil, err
	}

	rootID := SeriesRootID(linked)
	series, err := s.store.FindSeries(ctx, ownerID, rootID, listID)
	if err != nil {
		return nil, errutil.Internal("failed to load series", err)
	}

	if cfg.EndCount > 0 && len(series) >= cfg.EndCount {
		logger.Debug("series exhausted", zap.Int("end_count", cfg.EndCount), zap.Int("size", len(series)))
		return nil, nil
	}

	today := clock.TodayIn(s.clock, cfg.Timezone)
	currentDate := OccurrenceDate(linked)
	if currentDate == "" {
		currentDate = today
	}

	for _, member := range series {
		if member.ID == linked.ID {
			continue
		}
		if d := OccurrenceDate(member); d != "" && d > currentDate {
			logger.Debug("future occurrence already exists", zap.String("occurrence_id", member.ID), zap.String("date", d))
			return nil, nil
		}
	}

	var nextPlan, nextDue string
	if p := deref(linked.PlanDate); p != "" {
		nextPlan, _ = NextDate(p, cfg)
	}
	if d := deref(linked.DueDate); d != "" {
		nextDue, _ = NextDate(d, cfg)
	}
	if nextPlan == "" && nextDue == "" {
		nextPlan, _ = NextDate(today, cfg)
	}

	anchor := nextPlan
	if anchor == "" {
		anchor = nextDue
	}
	if anchor == "" {
		return nil, nil
	}

	if cfg.EndDate != "" && anchor > cfg.EndDate {
		logger.Debug("next occurrence past end date", zap.String("anchor", anchor), zap.String("end_date", cfg.EndDate))
		return nil, nil
	}

	if cfg.EndCount > 0 && len(series)+1 > cfg.EndCount {
		return nil, nil
	}

	for _, member := range series {
		if OccurrenceDate(member) == anchor {
			logger.Debug("occurrence already exists for anchor", zap.String("occurrence_id", member.ID), zap.String("anchor", anchor))
			return nil, nil
		}
	}

	sortOrder, err := s.store.NextSortOrder(ctx, ownerID, linked.ListID, linked.ParentID)
	if err != nil {
		return nil, errutil.Internal("failed to compute sort order", err)
	}

	next := &task.Task{
		ID:                     s.node.Generate().String(),
		UserID:                 ownerID,
		ListID:                 linked.ListID,
		ParentID:               linked.ParentID,
		Name:                   linked.Name,
		Completed:              false,
		Starred:                linked.Starred,
		PlanDate:               optional(nextPlan),
		DueDate:                optional(nextDue),
		Comment:                linked.Comment,
		DurationMinutes:        linked.DurationMinutes,
		SortOrder:              sortOrder,
		RecurrenceFrequency:    linked.RecurrenceFrequency,
		RecurrenceInterval:     linked.RecurrenceInterval,
		RecurrenceWeekdays:     slices.Clone(linked.RecurrenceWeekdays),
		RecurrenceEndDate:      linked.RecurrenceEndDate,
		RecurrenceEndCount:     linked.RecurrenceEndCount,
		RecurrenceRule:         linked.RecurrenceRule,
		RecurrenceTimezone:     linked.RecurrenceTimezone,
		RecurrenceSourceTaskID: &rootID,
	}

	if err := s.store.CreateTask(ctx, next); err != nil {
		logger.Error("failed to insert next occurrence", zap.Error(err))
		return nil, errutil.Internal("failed to create next occurrence", err)
	}

	logger.Info("next occurrence generated",
		zap.String("occurrence_id", next.ID),
		zap.String("series_root_id", rootID),
		zap.String("anchor", anchor),
	)

	s.publishOccurrence(ctx, next)
	return next, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
