package repository

import (
	"context"
	"testing"
	"time"

	"github.com/gtn1024/puratodo-sub001/pkg/db/option"
	"github.com/gtn1024/puratodo-sub001/services/testutil"

	"github.com/stretchr/testify/require"
)

type widget struct {
	ID        string `gorm:"primaryKey"`
	Owner     string
	Score     int
	Parent    *string
	CreatedAt time.Time
}

func newWidgets(t *testing.T) Repository[widget] {
	t.Helper()

	repo := ProvideStore[widget](testutil.NewTestDB(t, &widget{}))
	ctx := context.Background()
	parent := "a"
	for _, w := range []*widget{
		{ID: "a", Owner: "amy", Score: 3},
		{ID: "b", Owner: "amy", Score: 1, Parent: &parent},
		{ID: "c", Owner: "bob", Score: 2},
	} {
		require.NoError(t, repo.Create(ctx, w))
	}
	return repo
}

func TestFindWithOptions(t *testing.T) {
	repo := newWidgets(t)
	ctx := context.Background()

	found, err := repo.Find(ctx, &widget{Owner: "amy"}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "score",
		OrderBy: "asc",
		Allow:   map[string]bool{"score": true},
	}))
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "b", found[0].ID)

	found, err = repo.Find(ctx, nil, option.ApplyOperator(option.Condition{
		Field:    "id",
		Operator: option.IN,
		Value:    []string{"a", "c"},
	}))
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = repo.Find(ctx, nil, option.ApplyOperator(option.Condition{
		Field:    "score",
		Operator: option.GTE,
		Value:    2,
	}), option.ApplyOperator(option.Condition{Field: "parent", Operator: option.IsNull}))
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = repo.Find(ctx, nil, option.Where("(owner = ? OR score = ?)", "bob", 1))
	require.NoError(t, err)
	require.Len(t, found, 2)
}

func TestFindOneMissing(t *testing.T) {
	repo := newWidgets(t)

	got, err := repo.FindOne(context.Background(), &widget{ID: "zzz"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUpdateWhere(t *testing.T) {
	repo := newWidgets(t)
	ctx := context.Background()

	rows, err := repo.UpdateWhere(ctx, &widget{Owner: "amy"}, map[string]any{"score": 9})
	require.NoError(t, err)
	require.Equal(t, int64(2), rows)

	rows, err = repo.UpdateWhere(ctx, &widget{ID: "c"}, map[string]any{"score": 9},
		option.ApplyOperator(option.Condition{Field: "owner", Operator: option.EQ, Value: "amy"}))
	require.NoError(t, err)
	require.Zero(t, rows)

	c, err := repo.FindOne(ctx, &widget{ID: "c"})
	require.NoError(t, err)
	require.Equal(t, 2, c.Score)
}

func TestNilDB(t *testing.T) {
	repo := ProvideStore[widget](nil)

	_, err := repo.Find(context.Background(), nil)
	require.Error(t, err)
}
