package recurrence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gtn1024/puratodo-sub001/pkg/clock"
	"github.com/gtn1024/puratodo-sub001/pkg/config"
	"github.com/gtn1024/puratodo-sub001/pkg/errutil"
	"github.com/gtn1024/puratodo-sub001/services/task"
	"github.com/gtn1024/puratodo-sub001/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

var testNow = time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

type fixture struct {
	store   *task.Store
	service *Service
	node    *snowflake.Node
}

type serviceOption func(*Params)

func withPublisher(p Publisher) serviceOption {
	return func(params *Params) { params.Publisher = p }
}

func withDefaultTimezone(tz string) serviceOption {
	return func(params *Params) {
		cfg := &config.Config{}
		cfg.Recurrence.DefaultTimezone = tz
		params.Config = cfg
	}
}

func newFixture(t *testing.T, opts ...serviceOption) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &task.Task{})
	store := task.NewStore(task.StoreParams{DB: db})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	params := Params{
		Store: store,
		Clock: clock.Fixed(testNow),
		Node:  node,
	}
	for _, opt := range opts {
		opt(&params)
	}

	return &fixture{store: store, service: NewService(params), node: node}
}

func (f *fixture) seed(t *testing.T, tk *task.Task) *task.Task {
	t.Helper()

	if tk.ID == "" {
		tk.ID = f.node.Generate().String()
	}
	if tk.UserID == "" {
		tk.UserID = owner
	}
	if tk.ListID == "" {
		tk.ListID = "inbox"
	}
	if tk.Name == "" {
		tk.Name = "Water plants"
	}
	require.NoError(t, f.store.CreateTask(context.Background(), tk))
	return tk
}

func (f *fixture) complete(t *testing.T, id string) *task.Task {
	t.Helper()

	updated, err := f.service.UpdateTask(context.Background(), UpdateRequest{
		OwnerID: owner,
		TaskID:  id,
		Patch:   task.Patch{task.ColCompleted: true},
	})
	require.NoError(t, err)
	return updated
}

func (f *fixture) series(t *testing.T, id string) []*task.Task {
	t.Helper()

	series, err := f.service.Series(context.Background(), owner, id, nil)
	require.NoError(t, err)
	return series
}

func daily(interval int) *task.Task {
	return &task.Task{
		RecurrenceFrequency: strPtr(task.FrequencyDaily),
		RecurrenceInterval:  intPtr(interval),
	}
}

func requireStatus(t *testing.T, err error, status errutil.CoreStatus) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, errutil.StatusOf(err))
}

type recordingPublisher struct {
	published []*task.Task
	err       error
}

func (p *recordingPublisher) OccurrenceCreated(_ context.Context, occurrence *task.Task) error {
	p.published = append(p.published, occurrence)
	return p.err
}

type failingCreateStore struct {
	*task.Store
}

func (failingCreateStore) CreateTask(context.Context, *task.Task) error {
	return errors.New("disk full")
}

func TestUpdateTaskRejectsEmptyPatch(t *testing.T) {
	f := newFixture(t)
	root := f.seed(t, daily(1))

	_, err := f.service.UpdateTask(context.Background(), UpdateRequest{OwnerID: owner, TaskID: root.ID})
	requireStatus(t, err, errutil.StatusBadRequest)
	require.Contains(t, err.Error(), "At least one field must be provided")
}

func TestUpdateTaskNotFound(t *testing.T) {
	f := newFixture(t)
	root := f.seed(t, daily(1))
	other := "work"

	tests := []struct {
		name string
		req  UpdateRequest
	}{
		{"unknown id", UpdateRequest{OwnerID: owner, TaskID: "missing"}},
		{"other owner", UpdateRequest{OwnerID: "user-2", TaskID: root.ID}},
		{"other list", UpdateRequest{OwnerID: owner, TaskID: root.ID, ListID: &other}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Patch = task.Patch{task.ColStarred: true}
			_, err := f.service.UpdateTask(context.Background(), tt.req)
			requireStatus(t, err, errutil.StatusNotFound)
		})
	}
}

func TestCompletingGeneratesNextOccurrence(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, withPublisher(pub))

	seed := daily(2)
	seed.PlanDate = strPtr("2024-01-10")
	seed.DueDate = strPtr("2024-01-12")
	seed.Starred = true
	seed.Comment = strPtr("front porch")
	seed.DurationMinutes = intPtr(15)
	root := f.seed(t, seed)

	updated := f.complete(t, root.ID)
	require.True(t, updated.Completed)

	series := f.series(t, root.ID)
	require.Len(t, series, 2)
	require.Equal(t, root.ID, series[0].ID)
	require.Equal(t, root.ID, *series[0].RecurrenceSourceTaskID)

	next := series[1]
	require.False(t, next.Completed)
	require.Equal(t, "2024-01-12", *next.PlanDate)
	require.Equal(t, "2024-01-14", *next.DueDate)
	require.Equal(t, root.ID, *next.RecurrenceSourceTaskID)
	require.Equal(t, root.Name, next.Name)
	require.True(t, next.Starred)
	require.Equal(t, "front porch", *next.Comment)
	require.Equal(t, 15, *next.DurationMinutes)
	require.Equal(t, 2, *next.RecurrenceInterval)
	require.Equal(t, int64(1), next.SortOrder)
	require.Nil(t, next.RemindAt)

	require.Len(t, pub.published, 1)
	require.Equal(t, next.ID, pub.published[0].ID)
}

func TestGenerateNextOccurrenceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-10")
	root := f.seed(t, seed)
	f.complete(t, root.ID)

	current, err := f.store.FindTask(context.Background(), owner, root.ID, nil)
	require.NoError(t, err)

	again, err := f.service.GenerateNextOccurrence(context.Background(), owner, current, nil)
	require.NoError(t, err)
	require.Nil(t, again)
	require.Len(t, f.series(t, root.ID), 2)
}

func TestReopenAndCompleteDoesNotDuplicate(t *testing.T) {
	f := newFixture(t)
	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-10")
	root := f.seed(t, seed)
	f.complete(t, root.ID)

	_, err := f.service.UpdateTask(context.Background(), UpdateRequest{
		OwnerID: owner,
		TaskID:  root.ID,
		Patch:   task.Patch{task.ColCompleted: false},
	})
	require.NoError(t, err)
	f.complete(t, root.ID)

	require.Len(t, f.series(t, root.ID), 2)
}

func TestSeriesStopsAtEndCount(t *testing.T) {
	f := newFixture(t)
	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-01")
	seed.RecurrenceEndCount = intPtr(3)
	root := f.seed(t, seed)

	current := root.ID
	for i := 0; i < 3; i++ {
		f.complete(t, current)
		series := f.series(t, root.ID)
		current = series[len(series)-1].ID
	}

	series := f.series(t, root.ID)
	require.Len(t, series, 3)
	require.Equal(t, "2024-01-03", *series[2].PlanDate)
	require.True(t, series[2].Completed)
}

func TestSeriesStopsAtEndDate(t *testing.T) {
	f := newFixture(t)
	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-01")
	seed.RecurrenceEndDate = strPtr("2024-01-02")
	root := f.seed(t, seed)

	f.complete(t, root.ID)
	series := f.series(t, root.ID)
	require.Len(t, series, 2)

	f.complete(t, series[1].ID)
	require.Len(t, f.series(t, root.ID), 2)
}

func TestGenerationFallsBackToToday(t *testing.T) {
	f := newFixture(t, withDefaultTimezone("Asia/Tokyo"))
	root := f.seed(t, daily(1))

	f.complete(t, root.ID)

	series := f.series(t, root.ID)
	require.Len(t, series, 2)

	var generated *task.Task
	for _, s := range series {
		if s.ID != root.ID {
			generated = s
		}
	}
	require.NotNil(t, generated)
	require.Equal(t, "2024-03-12", *generated.PlanDate)
	require.Nil(t, generated.DueDate)
}

func TestCustomRuleDrivesGeneration(t *testing.T) {
	f := newFixture(t)
	root := f.seed(t, &task.Task{
		PlanDate:            strPtr("2024-01-03"),
		RecurrenceFrequency: strPtr(task.FrequencyCustom),
		RecurrenceRule:      strPtr("FREQ=WEEKLY;INTERVAL=2;BYDAY=MO"),
	})

	f.complete(t, root.ID)

	series := f.series(t, root.ID)
	require.Len(t, series, 2)
	require.Equal(t, "2024-01-15", *series[1].PlanDate)
	require.Equal(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO", *series[1].RecurrenceRule)
}

func TestCompletingNonRecurringTask(t *testing.T) {
	f := newFixture(t)
	plain := f.seed(t, &task.Task{PlanDate: strPtr("2024-01-10")})

	updated := f.complete(t, plain.ID)
	require.True(t, updated.Completed)
	require.Nil(t, updated.RecurrenceSourceTaskID)

	series := f.series(t, plain.ID)
	require.Len(t, series, 1)
}

func TestUpdateScopePropagation(t *testing.T) {
	build := func(t *testing.T) (*fixture, []*task.Task) {
		f := newFixture(t)
		seed := daily(1)
		seed.PlanDate = strPtr("2024-01-01")
		root := f.seed(t, seed)
		f.complete(t, root.ID)
		f.complete(t, f.series(t, root.ID)[1].ID)

		series := f.series(t, root.ID)
		require.Len(t, series, 3)
		return f, series
	}

	t.Run("future", func(t *testing.T) {
		f, series := build(t)

		updated, err := f.service.UpdateTask(context.Background(), UpdateRequest{
			OwnerID: owner,
			TaskID:  series[1].ID,
			Scope:   ScopeFuture,
			Patch: task.Patch{
				task.ColRecurrenceInterval: 5,
				task.ColName:               "Water all plants",
			},
		})
		require.NoError(t, err)
		require.Equal(t, 5, *updated.RecurrenceInterval)

		after := f.series(t, series[0].ID)
		require.Equal(t, 1, *after[0].RecurrenceInterval)
		require.Equal(t, 5, *after[2].RecurrenceInterval)
		require.Equal(t, "Water plants", after[2].Name, "non-recurrence fields stay local")
	})

	t.Run("single", func(t *testing.T) {
		f, series := build(t)

		_, err := f.service.UpdateTask(context.Background(), UpdateRequest{
			OwnerID: owner,
			TaskID:  series[1].ID,
			Scope:   ScopeSingle,
			Patch:   task.Patch{task.ColRecurrenceInterval: 5},
		})
		require.NoError(t, err)

		after := f.series(t, series[0].ID)
		require.Equal(t, 1, *after[0].RecurrenceInterval)
		require.Equal(t, 5, *after[1].RecurrenceInterval)
		require.Equal(t, 1, *after[2].RecurrenceInterval)
	})
}

func TestListScopedMove(t *testing.T) {
	inbox := "inbox"

	t.Run("move only", func(t *testing.T) {
		f := newFixture(t)
		seed := daily(1)
		seed.PlanDate = strPtr("2024-01-10")
		root := f.seed(t, seed)

		updated, err := f.service.UpdateTask(context.Background(), UpdateRequest{
			OwnerID: owner,
			TaskID:  root.ID,
			ListID:  &inbox,
			Patch:   task.Patch{task.ColListID: "work"},
		})
		require.NoError(t, err)
		require.Equal(t, "work", updated.ListID)
		require.Len(t, f.series(t, root.ID), 1)
	})

	t.Run("move and complete", func(t *testing.T) {
		f := newFixture(t)
		seed := daily(1)
		seed.PlanDate = strPtr("2024-01-10")
		root := f.seed(t, seed)

		updated, err := f.service.UpdateTask(context.Background(), UpdateRequest{
			OwnerID: owner,
			TaskID:  root.ID,
			ListID:  &inbox,
			Patch:   task.Patch{task.ColListID: "work", task.ColCompleted: true},
		})
		require.NoError(t, err)
		require.Equal(t, "work", updated.ListID)
		require.True(t, updated.Completed)

		series := f.series(t, root.ID)
		require.Len(t, series, 2)
		require.Equal(t, "2024-01-11", *series[1].PlanDate)
		require.Equal(t, "work", series[1].ListID)
	})
}

func TestGenerationFailureKeepsUpdate(t *testing.T) {
	f := newFixture(t)
	broken := NewService(Params{
		Store: failingCreateStore{f.store},
		Clock: clock.Fixed(testNow),
		Node:  f.node,
	})

	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-10")
	root := f.seed(t, seed)

	_, err := broken.UpdateTask(context.Background(), UpdateRequest{
		OwnerID: owner,
		TaskID:  root.ID,
		Patch:   task.Patch{task.ColCompleted: true},
	})
	requireStatus(t, err, errutil.StatusInternal)

	stored, err := f.store.FindTask(context.Background(), owner, root.ID, nil)
	require.NoError(t, err)
	require.True(t, stored.Completed)
	require.Len(t, f.series(t, root.ID), 1)
}

func TestPublisherFailureDoesNotFailUpdate(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	f := newFixture(t, withPublisher(pub))

	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-10")
	root := f.seed(t, seed)

	f.complete(t, root.ID)
	require.Len(t, pub.published, 1)
	require.Len(t, f.series(t, root.ID), 2)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	root := f.seed(t, &task.Task{
		PlanDate:            strPtr("2024-01-30"),
		RecurrenceFrequency: strPtr(task.FrequencyMonthly),
		RecurrenceEndCount:  intPtr(4),
	})

	preview, err := f.service.Preview(context.Background(), owner, root.ID, nil, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-02-29", "2024-03-29", "2024-04-29"}, preview.Dates)
	require.Equal(t, FrequencyMonthly, preview.Config.Frequency)
	require.Contains(t, preview.RRule, "FREQ=MONTHLY")

	plain := f.seed(t, &task.Task{})
	_, err = f.service.Preview(context.Background(), owner, plain.ID, nil, 5)
	requireStatus(t, err, errutil.StatusBadRequest)
}

func TestPreviewStartsAfterLatestOccurrence(t *testing.T) {
	f := newFixture(t)
	seed := daily(1)
	seed.PlanDate = strPtr("2024-01-10")
	root := f.seed(t, seed)
	f.complete(t, root.ID)

	preview, err := f.service.Preview(context.Background(), owner, root.ID, nil, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-01-12", "2024-01-13"}, preview.Dates)
}

func TestExportSeries(t *testing.T) {
	f := newFixture(t)
	seed := daily(2)
	seed.PlanDate = strPtr("2024-01-10")
	root := f.seed(t, seed)
	f.complete(t, root.ID)

	out, err := f.service.ExportSeries(context.Background(), owner, root.ID, nil)
	require.NoError(t, err)

	ics := string(out)
	require.Contains(t, ics, "BEGIN:VCALENDAR")
	require.Contains(t, ics, "PRODID:"+icalProductID)
	require.Equal(t, 2, strings.Count(ics, "BEGIN:VTODO"))
	require.Contains(t, ics, "UID:"+occurrenceUID(root.ID))
	require.Contains(t, ics, "RELATED-TO:"+occurrenceUID(root.ID))
	require.Contains(t, ics, "DTSTART;VALUE=DATE:20240110")
	require.Contains(t, ics, "DTSTART;VALUE=DATE:20240112")
	require.Contains(t, ics, "STATUS:COMPLETED")
	require.Contains(t, ics, "STATUS:NEEDS-ACTION")
	require.Equal(t, 1, strings.Count(ics, "RRULE:"))
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope("future")
	require.NoError(t, err)
	require.Equal(t, ScopeFuture, scope)

	scope, err = ParseScope("single")
	require.NoError(t, err)
	require.Equal(t, ScopeSingle, scope)

	for _, bad := range []any{"all", "", nil, 1} {
		_, err := ParseScope(bad)
		requireStatus(t, err, errutil.StatusBadRequest)
	}
}
