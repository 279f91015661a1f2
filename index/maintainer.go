/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package index

import (
	"context"
	"fmt"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
	"github.com/suparena/entitykv/storagemodels"
)

// Stats counts the index entries touched by one maintenance call.
type Stats struct {
	Inserted int
	Removed  int
}

func (s *Stats) add(o Stats) {
	s.Inserted += o.Inserted
	s.Removed += o.Removed
}

// Maintainer keeps the declared indexes of one entity in step with its data.
type Maintainer struct {
	stores *datastore.Registry
	entity *registry.ResolvedEntity
}

// NewMaintainer returns a maintainer for entity writing to stores.
func NewMaintainer(stores *datastore.Registry, entity *registry.ResolvedEntity) *Maintainer {
	return &Maintainer{stores: stores, entity: entity}
}

type planned struct {
	idx    schema.Index
	key    storagemodels.IndexKey
	hasKey bool
}

func (m *Maintainer) plan(rec filter.Record) ([]planned, error) {
	out := make([]planned, len(m.entity.Indexes))
	for i, idx := range m.entity.Indexes {
		if err := checkIndexable(m.entity, idx, rec); err != nil {
			return nil, err
		}
		k, ok := KeyFor(m.entity, idx, rec)
		if ok {
			if err := k.Validate(); err != nil {
				return nil, err
			}
		}
		out[i] = planned{idx: idx, key: k, hasKey: ok}
	}
	return out, nil
}

// Check fails with IndexViolationError when any unique index of rec already
// maps to a key other than pk. Nothing is written.
func (m *Maintainer) Check(ctx context.Context, rec filter.Record, pk storagemodels.DataKey) error {
	entries, err := m.plan(rec)
	if err != nil {
		return err
	}
	return m.check(ctx, entries, pk)
}

func (m *Maintainer) check(ctx context.Context, entries []planned, pk storagemodels.DataKey) error {
	for _, e := range entries {
		if !e.idx.Unique || !e.hasKey {
			continue
		}
		set, err := m.read(ctx, e.idx.Store, e.key)
		if err != nil {
			return err
		}
		for _, held := range set.Keys() {
			if string(held) != string(pk) {
				return errors.NewIndexViolationError(e.idx.Store, e.idx.Fields)
			}
		}
	}
	return nil
}

// Insert adds pk under every index key of rec after checking uniqueness of
// all of them.
func (m *Maintainer) Insert(ctx context.Context, rec filter.Record, pk storagemodels.DataKey) (Stats, error) {
	entries, err := m.plan(rec)
	if err != nil {
		return Stats{}, err
	}
	if err := m.check(ctx, entries, pk); err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, e := range entries {
		if !e.hasKey {
			continue
		}
		added, err := m.add(ctx, e.idx.Store, e.key, pk)
		if err != nil {
			return st, err
		}
		if added {
			st.Inserted++
		}
	}
	return st, nil
}

// Remove drops pk from every index key of rec. Emptied entries are pruned.
func (m *Maintainer) Remove(ctx context.Context, rec filter.Record, pk storagemodels.DataKey) (Stats, error) {
	entries, err := m.plan(rec)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, e := range entries {
		if !e.hasKey {
			continue
		}
		removed, err := m.remove(ctx, e.idx.Store, e.key, pk)
		if err != nil {
			return st, err
		}
		if removed {
			st.Removed++
		}
	}
	return st, nil
}

// Update moves pk from the index keys of old to those of rec. A nil old
// means there was no prior record and nothing is removed. Uniqueness of every
// new key is checked before any entry is written; an index whose old and new
// keys are identical is left in place.
func (m *Maintainer) Update(ctx context.Context, old, rec filter.Record, pk storagemodels.DataKey) (Stats, error) {
	if old == nil {
		return m.Insert(ctx, rec, pk)
	}

	next, err := m.plan(rec)
	if err != nil {
		return Stats{}, err
	}
	prev, err := m.plan(old)
	if err != nil {
		return Stats{}, err
	}
	if err := m.check(ctx, next, pk); err != nil {
		return Stats{}, err
	}

	var st Stats
	for i := range next {
		n, p := next[i], prev[i]
		if n.hasKey && p.hasKey && sameKey(n.key, p.key) {
			// Repair a missing entry; never remove.
			added, err := m.add(ctx, n.idx.Store, n.key, pk)
			if err != nil {
				return st, err
			}
			if added {
				st.Inserted++
			}
			continue
		}
		var one Stats
		if n.hasKey {
			added, err := m.add(ctx, n.idx.Store, n.key, pk)
			if err != nil {
				return st, err
			}
			if added {
				one.Inserted++
			}
		}
		if p.hasKey {
			removed, err := m.remove(ctx, p.idx.Store, p.key, pk)
			if err != nil {
				return st, err
			}
			if removed {
				one.Removed++
			}
		}
		st.add(one)
	}
	return st, nil
}

// Lookup returns the primary keys held under values of idx.
func (m *Maintainer) Lookup(ctx context.Context, idx schema.Index, values []filter.Value) ([]storagemodels.DataKey, error) {
	if len(values) != len(idx.Fields) {
		return nil, errors.NewQueryError(m.entity.Path, "", fmt.Sprintf("index on %v takes %d values, got %d", idx.Fields, len(idx.Fields), len(values)))
	}
	rec := make(filter.Record, len(values))
	for i, name := range idx.Fields {
		rec[name] = values[i]
	}
	k, ok := KeyFor(m.entity, idx, rec)
	if !ok {
		return nil, nil
	}
	set, err := m.read(ctx, idx.Store, k)
	if err != nil {
		return nil, err
	}
	return set.Keys(), nil
}

func (m *Maintainer) read(ctx context.Context, store string, k storagemodels.IndexKey) (*storagemodels.IndexValue, error) {
	var set *storagemodels.IndexValue
	err := m.stores.WithStore(ctx, store, func(s datastore.Reader) error {
		var err error
		set, err = readSet(ctx, s, store, k.Encode())
		return err
	})
	return set, err
}

func (m *Maintainer) add(ctx context.Context, store string, k storagemodels.IndexKey, pk storagemodels.DataKey) (bool, error) {
	var added bool
	err := m.stores.WithStoreMut(ctx, store, func(s datastore.Store) error {
		raw := k.Encode()
		set, err := readSet(ctx, s, store, raw)
		if err != nil {
			return err
		}
		if added = set.Add(pk); !added {
			return nil
		}
		_, _, err = s.Insert(ctx, raw, set.Encode())
		return err
	})
	return added, err
}

func (m *Maintainer) remove(ctx context.Context, store string, k storagemodels.IndexKey, pk storagemodels.DataKey) (bool, error) {
	var removed bool
	err := m.stores.WithStoreMut(ctx, store, func(s datastore.Store) error {
		raw := k.Encode()
		set, err := readSet(ctx, s, store, raw)
		if err != nil {
			return err
		}
		if removed = set.Remove(pk); !removed {
			return nil
		}
		if set.Len() == 0 {
			_, _, err = s.Remove(ctx, raw)
			return err
		}
		_, _, err = s.Insert(ctx, raw, set.Encode())
		return err
	})
	return removed, err
}

func readSet(ctx context.Context, s datastore.Reader, store string, raw []byte) (*storagemodels.IndexValue, error) {
	b, ok, err := s.Get(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return storagemodels.NewIndexValue(), nil
	}
	set, err := storagemodels.DecodeIndexValue(b)
	if err != nil {
		return nil, errors.NewCorruptError(store, fmt.Sprintf("%x", raw), err)
	}
	return set, nil
}
