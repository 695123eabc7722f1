package repository

import (
	"context"
	"errors"

	"github.com/gtn1024/puratodo-sub001/pkg/db/option"

	"gorm.io/gorm"
)

type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	// FindOne returns nil, nil when no row matches.
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	UpdateWhere(ctx context.Context, query *T, values any, opts ...option.QueryOption) (int64, error)
}

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var resources []*T
	tx := option.Apply(s.scoped(ctx, query), opts...)
	if err := tx.Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func (s *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	if s.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var resource T
	tx := option.Apply(s.scoped(ctx, query), opts...)
	if err := tx.First(&resource).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

func (s *store[T]) Create(ctx context.Context, resource *T) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	return s.db.WithContext(ctx).Create(resource).Error
}

func (s *store[T]) UpdateWhere(ctx context.Context, query *T, values any, opts ...option.QueryOption) (int64, error) {
	if s.db == nil {
		return 0, gorm.ErrInvalidDB
	}

	tx := option.Apply(s.scoped(ctx, query), opts...)
	res := tx.Updates(values)
	return res.RowsAffected, res.Error
}

func (s *store[T]) scoped(ctx context.Context, query *T) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(new(T))
	if query != nil {
		tx = tx.Where(query)
	}
	return tx
}
