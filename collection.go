/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitykv

import (
	"context"

	"github.com/suparena/entitykv/executor"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/query"
	"github.com/suparena/entitykv/sortkey"
)

// Collection provides typed operations for entity type E.
type Collection[E executor.Entity] struct {
	db *DB
}

// NewCollection returns the collection of E, failing when E's entity path is
// not in the schema.
func NewCollection[E executor.Entity](db *DB) (*Collection[E], error) {
	var zero E
	if _, err := db.resolver.Resolve(zero.EntityPath()); err != nil {
		return nil, err
	}
	return &Collection[E]{db: db}, nil
}

// MustCollection is NewCollection for init code.
func MustCollection[E executor.Entity](db *DB) *Collection[E] {
	c, err := NewCollection[E](db)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the record at the full key given by values.
func (c *Collection[E]) Get(ctx context.Context, values ...filter.Value) (*E, error) {
	row, ok, err := executor.Get[E](ctx, c.db.Exec(), query.Key(values))
	if err != nil || !ok {
		return nil, err
	}
	return &row.Value, nil
}

// Exists reports whether a record is stored at the full key given by values.
func (c *Collection[E]) Exists(ctx context.Context, values ...filter.Value) (bool, error) {
	return executor.Exists[E](ctx, c.db.Exec(), query.Key(values))
}

// Load returns the rows selected by q.
func (c *Collection[E]) Load(ctx context.Context, q query.LoadQuery) ([]executor.Row[E], error) {
	return executor.Load[E](ctx, c.db.Exec(), q)
}

// Count returns how many records q selects.
func (c *Collection[E]) Count(ctx context.Context, q query.LoadQuery) (int, error) {
	return executor.Count[E](ctx, c.db.Exec(), q)
}

// FindBy returns the records whose index over fields holds values.
func (c *Collection[E]) FindBy(ctx context.Context, fields []string, values ...filter.Value) ([]executor.Row[E], error) {
	return executor.LoadByIndex[E](ctx, c.db.Exec(), fields, values...)
}

// Create stores rec, failing when its key is taken.
func (c *Collection[E]) Create(ctx context.Context, rec E) (sortkey.SortKey, error) {
	return executor.Save(ctx, c.db.Exec(), query.Create, rec)
}

// Replace stores rec whether or not its key is taken.
func (c *Collection[E]) Replace(ctx context.Context, rec E) (sortkey.SortKey, error) {
	return executor.Save(ctx, c.db.Exec(), query.Replace, rec)
}

// Update merges rec into the stored record, failing when there is none.
func (c *Collection[E]) Update(ctx context.Context, rec E) (sortkey.SortKey, error) {
	return executor.Save(ctx, c.db.Exec(), query.Update, rec)
}

// SaveMany stores recs one by one; see executor.SaveMany.
func (c *Collection[E]) SaveMany(ctx context.Context, mode query.SaveMode, recs []E) ([]sortkey.SortKey, error) {
	return executor.SaveMany(ctx, c.db.Exec(), mode, recs)
}

// Delete removes the records selected by q and returns their keys.
func (c *Collection[E]) Delete(ctx context.Context, q query.DeleteQuery) ([]sortkey.SortKey, error) {
	return executor.Delete[E](ctx, c.db.Exec(), q)
}
