/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"
	"fmt"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/index"
	"github.com/suparena/entitykv/query"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/sortkey"
	"github.com/suparena/entitykv/storagemodels"
)

// saveOp is one record write, independent of the record's Go type.
type saveOp struct {
	entity *registry.ResolvedEntity
	mode   query.SaveMode
	rec    Entity
	// decode turns stored bytes back into a record of the same type.
	decode func(b []byte) (Entity, error)
	// merge combines rec with the stored record for Update; nil replaces.
	merge func(old Entity) Entity
}

// Save writes rec under its key and returns the key. Create fails with
// KeyExistsError when a record is stored there, Update with
// KeyNotFoundError when none is. Indexes are updated before the data row; a
// unique violation leaves both untouched.
func Save[E Entity](ctx context.Context, x *Context, mode query.SaveMode, rec E) (sortkey.SortKey, error) {
	e, err := x.resolve(pathOf[E]())
	if err != nil {
		return sortkey.SortKey{}, err
	}
	op := saveOp{
		entity: e,
		mode:   mode,
		rec:    rec,
		decode: func(b []byte) (Entity, error) {
			var v E
			err := x.codec().Unmarshal(b, &v)
			return v, err
		},
	}
	if m, ok := any(rec).(Merger[E]); ok {
		op.merge = func(old Entity) Entity { return m.Merge(old.(E)) }
	}
	return save(ctx, x, op)
}

// SaveMany saves recs in order. Each record is written on its own: when one
// fails, the keys already written stay written and are returned with the
// error.
func SaveMany[E Entity](ctx context.Context, x *Context, mode query.SaveMode, recs []E) ([]sortkey.SortKey, error) {
	keys := make([]sortkey.SortKey, 0, len(recs))
	for i, rec := range recs {
		k, err := Save(ctx, x, mode, rec)
		if err != nil {
			return keys, fmt.Errorf("save %d of %d: %w", i+1, len(recs), err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// SaveRaw decodes q.Record as the type registered for path and saves it.
// Update replaces the stored record.
func SaveRaw(ctx context.Context, x *Context, path string, q query.SaveQuery) (sortkey.SortKey, error) {
	if x.Types == nil {
		return sortkey.SortKey{}, fmt.Errorf("executor context needs a type registry for raw saves")
	}
	e, err := x.resolve(path)
	if err != nil {
		return sortkey.SortKey{}, err
	}
	if err := q.Validate(e); err != nil {
		return sortkey.SortKey{}, err
	}
	newEntity := func(b []byte) (Entity, error) {
		inst, err := x.Types.New(path)
		if err != nil {
			return nil, err
		}
		ent, ok := inst.(Entity)
		if !ok {
			return nil, fmt.Errorf("type registered for %s is %T, not an entity", path, inst)
		}
		if err := x.codec().Unmarshal(b, inst); err != nil {
			return nil, err
		}
		return ent, nil
	}
	rec, err := newEntity(q.Record)
	if err != nil {
		return sortkey.SortKey{}, errors.NewValidationError("record", err.Error())
	}
	return save(ctx, x, saveOp{entity: e, mode: q.Mode, rec: rec, decode: newEntity})
}

func save(ctx context.Context, x *Context, op saveOp) (sortkey.SortKey, error) {
	e := op.entity
	if got := op.rec.EntityPath(); got != e.Path {
		return sortkey.SortKey{}, errors.NewValidationError("path", fmt.Sprintf("record is a %s, not a %s", got, e.Path))
	}
	switch op.mode {
	case query.Create, query.Replace, query.Update:
	default:
		return sortkey.SortKey{}, errors.NewValidationError("mode", fmt.Sprintf("unknown save mode %s", op.mode))
	}

	values := op.rec.Values()
	key, err := e.KeyOf(values)
	if err != nil {
		return sortkey.SortKey{}, err
	}
	dk := storagemodels.KeyOf(key)

	var (
		old     storagemodels.DataRow
		existed bool
	)
	err = x.Stores.WithStore(ctx, e.Store, func(s datastore.Reader) error {
		var err error
		old, existed, err = readRow(ctx, s, key)
		return err
	})
	if err != nil {
		return key, err
	}
	if existed && old.Value.Path != e.Path {
		return key, errors.NewCorruptError(e.Store, key.String(), fmt.Errorf("row belongs to %s", old.Value.Path))
	}

	switch {
	case op.mode == query.Create && existed:
		return key, errors.NewKeyExistsError(e.Path, key.String())
	case op.mode == query.Update && !existed:
		return key, errors.NewKeyNotFoundError(e.Path, key.String())
	}

	var oldValues filter.Record
	if existed {
		prev, err := op.decode(old.Value.Bytes)
		if err != nil {
			return key, errors.NewCorruptError(e.Store, key.String(), err)
		}
		oldValues = prev.Values()
		if op.mode == query.Update && op.merge != nil {
			op.rec = op.merge(prev)
			values = op.rec.Values()
		}
	}

	b, err := x.codec().Marshal(op.rec)
	if err != nil {
		return key, errors.NewValidationError("record", err.Error())
	}
	now := x.clock().Now()
	md := storagemodels.Metadata{Created: now, Modified: now}
	if existed {
		md.Created = old.Value.Metadata.Created
	}
	dv := storagemodels.DataValue{Bytes: b, Path: e.Path, Metadata: md}

	m := index.NewMaintainer(x.Stores, e)
	st, err := m.Update(ctx, oldValues, values, dk)
	if err != nil {
		if errors.IsIndexViolation(err) {
			x.Metrics.UniqueViolation(e.Path)
			x.logger().Warn("unique index violation", "entity", e.Path, "key", key.String(), "error", err)
		}
		return key, err
	}

	err = x.Stores.WithStoreMut(ctx, e.Store, func(s datastore.Store) error {
		_, _, err := s.Insert(ctx, dk, dv.Encode())
		return err
	})
	if err != nil {
		// Put the index entries back the way they were. A nil record has no
		// index keys, so this also undoes a first insert.
		if _, rerr := m.Update(ctx, values, oldValues, dk); rerr != nil {
			x.logger().Error("index compensation failed", "entity", e.Path, "key", key.String(), "error", rerr)
		}
		return key, fmt.Errorf("save %s %s: %w", e.Path, key, err)
	}

	x.Metrics.Save(e.Path, 1)
	x.Metrics.Index(e.Path, st.Inserted, st.Removed)
	x.logger().Debug("save", "entity", e.Path, "mode", op.mode.String(), "key", key.String(), "replaced", existed)
	return key, nil
}
