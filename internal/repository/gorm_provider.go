package repository

import (
	"context"
	"fmt"

	"github.com/bassista/go_school/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProvider serves one collection from a table through gorm.
type GormProvider[T Item] struct {
	db           *gorm.DB
	name         string
	orderBy      string
	desc         bool
	strictDelete bool
	counter      string
}

// GormOption configures a GormProvider.
type GormOption func(*gormOptions)

type gormOptions struct {
	strictDelete bool
	counter      string
}

// WithStrictDelete makes deleting an unknown id fail with ErrNotFound.
func WithStrictDelete(strict bool) GormOption {
	return func(o *gormOptions) { o.strictDelete = strict }
}

// WithCounter names the integer column bumped by Increment.
func WithCounter(column string) GormOption {
	return func(o *gormOptions) { o.counter = column }
}

// NewGormProvider orders the collection by orderBy (descending when desc is set), ties broken by id.
func NewGormProvider[T Item](db *gorm.DB, name, orderBy string, desc bool, opts ...GormOption) *GormProvider[T] {
	var o gormOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &GormProvider[T]{db: db, name: name, orderBy: orderBy, desc: desc, strictDelete: o.strictDelete, counter: o.counter}
}

func (p *GormProvider[T]) Fetch(ctx context.Context, limit int) ([]T, error) {
	if p.db == nil {
		return nil, ErrConfigurationMissing
	}
	q := p.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: p.orderBy}, Desc: p.desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	if limit > 0 {
		q = q.Limit(limit)
	}

	var items []T
	if err := q.Find(&items).Error; err != nil {
		return nil, classify("select "+p.name, err)
	}
	if items == nil {
		items = []T{}
	}
	logger.WithCollection("gorm", p.name).Tracef("fetched %d rows (limit %d)", len(items), limit)
	return items, nil
}

func (p *GormProvider[T]) Insert(ctx context.Context, item T) error {
	if p.db == nil {
		return ErrConfigurationMissing
	}
	if err := p.db.WithContext(ctx).Create(&item).Error; err != nil {
		return classify("insert "+p.name, err)
	}
	return nil
}

func (p *GormProvider[T]) Delete(ctx context.Context, id string) error {
	if p.db == nil {
		return ErrConfigurationMissing
	}
	res := p.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return classify("delete "+p.name, res.Error)
	}
	if res.RowsAffected == 0 && p.strictDelete {
		return fmt.Errorf("delete %s %q: %w", p.name, id, ErrNotFound)
	}
	return nil
}

func (p *GormProvider[T]) Count(ctx context.Context) (int64, error) {
	if p.db == nil {
		return 0, ErrConfigurationMissing
	}
	var n int64
	if err := p.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, classify("count "+p.name, err)
	}
	return n, nil
}

// Increment adds one to the counter column of id in a single UPDATE.
func (p *GormProvider[T]) Increment(ctx context.Context, id string) error {
	if p.db == nil || p.counter == "" {
		return ErrConfigurationMissing
	}
	col := clause.Column{Name: p.counter}
	res := p.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).UpdateColumn(p.counter, gorm.Expr("? + 1", col))
	if res.Error != nil {
		return classify("increment "+p.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("increment %s %q: %w", p.name, id, ErrNotFound)
	}
	return nil
}
