/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"
	"fmt"
	"slices"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/index"
	"github.com/suparena/entitykv/query"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
	"github.com/suparena/entitykv/sortkey"
	"github.com/suparena/entitykv/storagemodels"
)

// readShape returns the stored rows of e addressed by shape, skipping rows
// written by other entities sharing the store. Many keeps its input order
// and drops repeated keys; ranges come back in ascending key order.
func readShape(ctx context.Context, x *Context, e *registry.ResolvedEntity, shape query.Shape) ([]storagemodels.DataRow, error) {
	var rows []storagemodels.DataRow
	keep := func(row storagemodels.DataRow) {
		if row.Value.Path == e.Path {
			rows = append(rows, row)
		}
	}

	err := x.Stores.WithStore(ctx, e.Store, func(s datastore.Reader) error {
		switch sh := shape.(type) {
		case query.ShapeOne:
			row, ok, err := readRow(ctx, s, sh.Key)
			if err != nil || !ok {
				return err
			}
			keep(row)
		case query.ShapeMany:
			seen := make(map[string]bool, len(sh.Keys))
			for _, k := range sh.Keys {
				dk := string(storagemodels.KeyOf(k))
				if seen[dk] {
					continue
				}
				seen[dk] = true
				row, ok, err := readRow(ctx, s, k)
				if err != nil {
					return err
				}
				if ok {
					keep(row)
				}
			}
		case query.ShapeRange:
			if sh.Empty() {
				return nil
			}
			var rerr error
			err := s.Range(ctx, storagemodels.KeyOf(sh.Start), storagemodels.KeyOf(sh.End), func(k, v []byte) bool {
				key, err := storagemodels.DataKey(k).SortKey()
				if err != nil {
					rerr = errors.NewCorruptError(e.Store, fmt.Sprintf("%x", k), err)
					return false
				}
				if !key.HasPrefix(sh.Within) {
					return true
				}
				val, err := storagemodels.DecodeDataValue(v)
				if err != nil {
					rerr = errors.NewCorruptError(e.Store, key.String(), err)
					return false
				}
				keep(storagemodels.DataRow{Key: key, Value: val})
				return true
			})
			if err != nil {
				return err
			}
			return rerr
		default:
			return fmt.Errorf("unknown shape %T", shape)
		}
		return nil
	})
	return rows, err
}

// Load returns the records of E selected by q: shape resolution, store read,
// post-filter, sort, then offset and limit.
func Load[E Entity](ctx context.Context, x *Context, q query.LoadQuery) ([]Row[E], error) {
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
	raw, err := readShape(ctx, x, e, shape)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", e.Path, err)
	}

	out := make([]Row[E], 0, len(raw))
	for _, r := range raw {
		v, err := decode[E](x, e.Store, r)
		if err != nil {
			return nil, err
		}
		if !filter.Evaluate(q.Filter, v.Values()) {
			continue
		}
		out = append(out, Row[E]{Key: r.Key, Value: v, Metadata: r.Value.Metadata})
	}
	query.Sort(out, q.Sort, func(r Row[E]) filter.Record { return r.Value.Values() })
	out = page(out, q.Offset, q.Limit)

	x.Metrics.Load(e.Path, len(out))
	x.logger().Debug("load", "entity", e.Path, "shape", shape.String(), "scanned", len(raw), "rows", len(out))
	return out, nil
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// Get returns the record of E at the full key k.
func Get[E Entity](ctx context.Context, x *Context, k query.Key) (Row[E], bool, error) {
	rows, err := Load[E](ctx, x, query.LoadQuery{Selector: query.One{Key: k}})
	if err != nil || len(rows) == 0 {
		return Row[E]{}, false, err
	}
	return rows[0], true, nil
}

// Count returns how many records of E q selects, ignoring sort, offset and
// limit.
func Count[E Entity](ctx context.Context, x *Context, q query.LoadQuery) (int, error) {
	q.Sort, q.Offset, q.Limit = nil, 0, 0
	rows, err := Load[E](ctx, x, q)
	return len(rows), err
}

// Exists reports whether a record of E is stored at the full key k. The
// record is not decoded.
func Exists[E Entity](ctx context.Context, x *Context, k query.Key) (bool, error) {
	e, err := x.resolve(pathOf[E]())
	if err != nil {
		return false, err
	}
	shape, err := query.Resolve(query.One{Key: k}, e)
	if err != nil {
		return false, err
	}
	rows, err := readShape(ctx, x, e, shape)
	return len(rows) > 0, err
}

// LoadByIndex returns the records of E whose declared index over fields
// holds values, in index order.
func LoadByIndex[E Entity](ctx context.Context, x *Context, fields []string, values ...filter.Value) ([]Row[E], error) {
	e, err := x.resolve(pathOf[E]())
	if err != nil {
		return nil, err
	}
	var idx *schema.Index
	for i := range e.Indexes {
		if slices.Equal(e.Indexes[i].Fields, fields) {
			idx = &e.Indexes[i]
			break
		}
	}
	if idx == nil {
		return nil, errors.NewQueryError(e.Path, "", fmt.Sprintf("no index over %v", fields))
	}
	dks, err := index.NewMaintainer(x.Stores, e).Lookup(ctx, *idx, values)
	if err != nil {
		return nil, err
	}
	keys := make([]sortkey.SortKey, len(dks))
	for i, dk := range dks {
		if keys[i], err = dk.SortKey(); err != nil {
			return nil, errors.NewCorruptError(idx.Store, fmt.Sprintf("%x", []byte(dk)), err)
		}
	}
	raw, err := readShape(ctx, x, e, query.ShapeMany{Keys: keys})
	if err != nil {
		return nil, err
	}
	out := make([]Row[E], 0, len(raw))
	for _, r := range raw {
		v, err := decode[E](x, e.Store, r)
		if err != nil {
			return nil, err
		}
		out = append(out, Row[E]{Key: r.Key, Value: v, Metadata: r.Value.Metadata})
	}
	x.Metrics.Load(e.Path, len(out))
	return out, nil
}

// StoredRow is a row of any entity decoded through the type registry.
type StoredRow struct {
	Key      sortkey.SortKey
	Path     string
	Value    any
	Metadata storagemodels.Metadata
}

// ScanStore decodes every row of a data store, whichever entity wrote it.
// Rows of paths without a registered type decode into a map[string]any.
func ScanStore(ctx context.Context, x *Context, store string) ([]StoredRow, error) {
	if x.Stores == nil {
		return nil, fmt.Errorf("executor context needs a store registry")
	}
	var out []StoredRow
	err := x.Stores.WithStore(ctx, store, func(s datastore.Reader) error {
		var rerr error
		err := s.Range(ctx, nil, nil, func(k, v []byte) bool {
			key, err := storagemodels.DataKey(k).SortKey()
			if err != nil {
				rerr = errors.NewCorruptError(store, fmt.Sprintf("%x", k), err)
				return false
			}
			val, err := storagemodels.DecodeDataValue(v)
			if err != nil {
				rerr = errors.NewCorruptError(store, key.String(), err)
				return false
			}
			var inst any = &map[string]any{}
			if x.Types != nil {
				if typed, err := x.Types.New(val.Path); err == nil {
					inst = typed
				}
			}
			if err := x.codec().Unmarshal(val.Bytes, inst); err != nil {
				rerr = errors.NewCorruptError(store, key.String(), err)
				return false
			}
			if m, ok := inst.(*map[string]any); ok {
				inst = *m
			}
			out = append(out, StoredRow{Key: key, Path: val.Path, Value: inst, Metadata: val.Metadata})
			return true
		})
		if err != nil {
			return err
		}
		return rerr
	})
	return out, err
}
