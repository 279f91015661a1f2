/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"
	"fmt"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/index"
	"github.com/suparena/entitykv/query"
	"github.com/suparena/entitykv/sortkey"
	"github.com/suparena/entitykv/storagemodels"
)

// Delete removes the records of E selected by q and their index entries. A
// selected key with no record is skipped; only keys actually removed are
// returned. Index entries go first; when the row removal fails they are put
// back. Each key is removed on its own, so an error leaves the earlier
// removals in place and they are returned with it.
func Delete[E Entity](ctx context.Context, x *Context, q query.DeleteQuery) ([]sortkey.SortKey, error) {
	e, err := x.resolve(pathOf[E]())
	if err != nil {
		return nil, err
	}
	if err := q.Validate(e); err != nil {
		return nil, err
	}
	shape, err := q.Shape(e)
	if err != nil {
		return nil, err
	}
	rows, err := readShape(ctx, x, e, shape)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", e.Path, err)
	}

	m := index.NewMaintainer(x.Stores, e)
	var (
		removed []sortkey.SortKey
		st      index.Stats
	)
	defer func() {
		x.Metrics.Delete(e.Path, len(removed))
		x.Metrics.Index(e.Path, st.Inserted, st.Removed)
	}()

	for _, r := range rows {
		v, err := decode[E](x, e.Store, r)
		if err != nil {
			return removed, err
		}
		values := v.Values()
		if !filter.Evaluate(q.Filter, values) {
			continue
		}
		dk := storagemodels.KeyOf(r.Key)
		one, err := m.Remove(ctx, values, dk)
		st.Removed += one.Removed
		if err != nil {
			st.Inserted += restoreIndexes(ctx, x, m, values, r.Key)
			return removed, fmt.Errorf("delete %s %s: %w", e.Path, r.Key, err)
		}
		var existed bool
		err = x.Stores.WithStoreMut(ctx, e.Store, func(s datastore.Store) error {
			var err error
			_, existed, err = s.Remove(ctx, dk)
			return err
		})
		if err != nil {
			st.Inserted += restoreIndexes(ctx, x, m, values, r.Key)
			return removed, fmt.Errorf("delete %s %s: %w", e.Path, r.Key, err)
		}
		if !existed {
			continue
		}
		removed = append(removed, r.Key)
	}

	x.logger().Debug("delete", "entity", e.Path, "shape", shape.String(), "removed", len(removed))
	return removed, nil
}

// restoreIndexes puts back the index entries of a record whose removal did
// not complete. It returns the number of entries re-added.
func restoreIndexes(ctx context.Context, x *Context, m *index.Maintainer, values filter.Record, key sortkey.SortKey) int {
	st, err := m.Insert(ctx, values, storagemodels.KeyOf(key))
	if err != nil {
		x.logger().Error("index restore failed", "key", key.String(), "error", err)
	}
	return st.Inserted
}
