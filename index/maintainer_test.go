/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package index

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/datastore/memory"
	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
	"github.com/suparena/entitykv/storagemodels"
)

var (
	nameIndex  = schema.Index{Store: "widget_names", Fields: []string{"name"}, Unique: true}
	scoreIndex = schema.Index{Store: "widget_scores", Fields: []string{"score", "name"}}
)

func setup(t *testing.T) (*Maintainer, *datastore.Registry) {
	t.Helper()
	s, err := schema.NewBuilder().Add(schema.Entity{
		Path:       "shop.Widget",
		Store:      "widgets",
		PrimaryKey: "id",
		Fields: []schema.Field{
			{Name: "id", Kind: schema.KindUlid},
			{Name: "name", Kind: schema.KindText},
			{Name: "score", Kind: schema.KindInt},
		},
		Indexes: []schema.Index{nameIndex, scoreIndex},
	}).Build()
	require.NoError(t, err)
	re, err := registry.NewResolver(s).Resolve("shop.Widget")
	require.NoError(t, err)

	stores := datastore.NewRegistry(datastore.WithOpener(memory.Opener()))
	return NewMaintainer(stores, re), stores
}

func widget(name string, score int64) filter.Record {
	return filter.Record{"name": filter.Text(name), "score": filter.Int(score)}
}

func pk(s string) storagemodels.DataKey { return storagemodels.DataKey(s) }

func lookupName(t *testing.T, m *Maintainer, name string) []storagemodels.DataKey {
	t.Helper()
	keys, err := m.Lookup(context.Background(), nameIndex, []filter.Value{filter.Text(name)})
	require.NoError(t, err)
	return keys
}

func storeLen(t *testing.T, stores *datastore.Registry, name string) int {
	t.Helper()
	var n int
	require.NoError(t, stores.WithStore(context.Background(), name, func(s datastore.Reader) error {
		var err error
		n, err = s.Len(context.Background())
		return err
	}))
	return n
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("a.B", []string{"x", "y"}), Hash("a.B", []string{"x", "y"}))
	assert.NotEqual(t, Hash("a.B", []string{"x", "y"}), Hash("a.B", []string{"y", "x"}))
	assert.NotEqual(t, Hash("a.B", []string{"x"}), Hash("a.C", []string{"x"}))
	assert.NotEqual(t, Hash("a.B", []string{"xy"}), Hash("a.B", []string{"x", "y"}))
}

func TestKeyFor(t *testing.T) {
	m, _ := setup(t)
	k, ok := KeyFor(m.entity, scoreIndex, widget("foo", 3))
	require.True(t, ok)
	assert.Equal(t, 2, len(k.Values))
	assert.Equal(t, "foo", k.Values[1])

	_, ok = KeyFor(m.entity, scoreIndex, filter.Record{"name": filter.Text("foo")})
	assert.False(t, ok)
	_, ok = KeyFor(m.entity, nameIndex, filter.Record{"name": filter.Float(1)})
	assert.False(t, ok)
}

func TestSwappedFieldOrderSharingStore(t *testing.T) {
	ctx := context.Background()
	xy := schema.Index{Store: "pairs", Fields: []string{"x", "y"}, Unique: true}
	yx := schema.Index{Store: "pairs", Fields: []string{"y", "x"}, Unique: true}
	s, err := schema.NewBuilder().Add(schema.Entity{
		Path:       "a.Pair",
		Store:      "pairs_data",
		PrimaryKey: "id",
		Fields:     []schema.Field{{Name: "id"}, {Name: "x"}, {Name: "y"}},
		Indexes:    []schema.Index{xy, yx},
	}).Build()
	require.NoError(t, err)
	re, err := registry.NewResolver(s).Resolve("a.Pair")
	require.NoError(t, err)
	m := NewMaintainer(datastore.NewRegistry(datastore.WithOpener(memory.Opener())), re)

	_, err = m.Insert(ctx, filter.Record{"x": filter.Text("1"), "y": filter.Text("2")}, pk("a"))
	require.NoError(t, err)
	_, err = m.Insert(ctx, filter.Record{"x": filter.Text("2"), "y": filter.Text("1")}, pk("b"))
	require.NoError(t, err, "(1,2) and (2,1) are different pairs")

	keys, err := m.Lookup(ctx, yx, []filter.Value{filter.Text("2"), filter.Text("1")})
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, keys)
}

func TestUniqueFloatIndex(t *testing.T) {
	ctx := context.Background()
	priceIndex := schema.Index{Store: "prices", Fields: []string{"price"}, Unique: true}
	s, err := schema.NewBuilder().Add(schema.Entity{
		Path:       "shop.Item",
		Store:      "items",
		PrimaryKey: "id",
		Fields:     []schema.Field{{Name: "id", Kind: schema.KindText}, {Name: "price", Kind: schema.KindFloat}},
		Indexes:    []schema.Index{priceIndex},
	}).Build()
	require.NoError(t, err)
	re, err := registry.NewResolver(s).Resolve("shop.Item")
	require.NoError(t, err)
	m := NewMaintainer(datastore.NewRegistry(datastore.WithOpener(memory.Opener())), re)

	_, err = m.Insert(ctx, filter.Record{"price": filter.Float(1.5)}, pk("a"))
	require.NoError(t, err)
	_, err = m.Insert(ctx, filter.Record{"price": filter.Float(1.5)}, pk("b"))
	assert.True(t, errors.IsIndexViolation(err))

	_, err = m.Insert(ctx, filter.Record{"price": filter.Float(2)}, pk("c"))
	require.NoError(t, err)
	keys, err := m.Lookup(ctx, priceIndex, []filter.Value{filter.Int(2)})
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.DataKey{pk("c")}, keys, "integers address float keys")

	_, err = m.Insert(ctx, filter.Record{"price": filter.Float(math.NaN())}, pk("d"))
	assert.True(t, errors.IsValidationError(err))
	_, err = m.Insert(ctx, filter.Record{"price": filter.Text("cheap")}, pk("e"))
	assert.True(t, errors.IsValidationError(err))
}

func TestInsertUnique(t *testing.T) {
	ctx := context.Background()
	m, stores := setup(t)

	st, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 2}, st)

	_, err = m.Insert(ctx, widget("foo", 2), pk("b"))
	require.Error(t, err)
	assert.True(t, errors.IsIndexViolation(err))
	var iv *errors.IndexViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, "widget_names", iv.Store)
	assert.Equal(t, []string{"name"}, iv.Fields)

	// The violation left the non-unique index untouched too.
	assert.Equal(t, 1, storeLen(t, stores, "widget_scores"))
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, lookupName(t, m, "foo"))

	// Re-inserting the same key is idempotent.
	st, err = m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestNonUniqueSharesEntry(t *testing.T) {
	ctx := context.Background()
	m, _ := setup(t)

	_, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	_, err = m.Insert(ctx, widget("bar", 1), pk("b"))
	require.NoError(t, err)

	keys, err := m.Lookup(ctx, schema.Index{Store: "widget_scores", Fields: []string{"score", "name"}},
		[]filter.Value{filter.Int(1), filter.Text("foo")})
	require.NoError(t, err)
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, keys)

	_, err = m.Lookup(ctx, scoreIndex, []filter.Value{filter.Int(1)})
	assert.True(t, errors.IsInvalidQuery(err))
}

func TestRemovePrunes(t *testing.T) {
	ctx := context.Background()
	m, stores := setup(t)

	_, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	st, err := m.Remove(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Removed: 2}, st)
	assert.Equal(t, 0, storeLen(t, stores, "widget_names"))
	assert.Equal(t, 0, storeLen(t, stores, "widget_scores"))

	st, err = m.Remove(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestUpdateNoPriorRecord(t *testing.T) {
	ctx := context.Background()
	m, _ := setup(t)

	st, err := m.Update(ctx, nil, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 2}, st)
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, lookupName(t, m, "foo"))
}

func TestUpdateIdenticalKey(t *testing.T) {
	ctx := context.Background()
	m, _ := setup(t)

	_, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)

	// Same name and score: no entry is removed or re-added.
	st, err := m.Update(ctx, widget("foo", 1), widget("foo", 1), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, lookupName(t, m, "foo"))

	// Score changes, name stays: only the score index moves.
	st, err = m.Update(ctx, widget("foo", 1), widget("foo", 2), pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 1, Removed: 1}, st)
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, lookupName(t, m, "foo"))
}

func TestUpdateChangedKey(t *testing.T) {
	ctx := context.Background()
	m, _ := setup(t)

	_, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	_, err = m.Insert(ctx, widget("baz", 1), pk("b"))
	require.NoError(t, err)

	_, err = m.Update(ctx, widget("foo", 1), widget("bar", 1), pk("a"))
	require.NoError(t, err)
	assert.Empty(t, lookupName(t, m, "foo"))
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, lookupName(t, m, "bar"))

	// Moving onto a held name fails and leaves both entries alone.
	_, err = m.Update(ctx, widget("bar", 1), widget("baz", 1), pk("a"))
	assert.True(t, errors.IsIndexViolation(err))
	assert.Equal(t, []storagemodels.DataKey{pk("a")}, lookupName(t, m, "bar"))
	assert.Equal(t, []storagemodels.DataKey{pk("b")}, lookupName(t, m, "baz"))
}

func TestUpdateDropsUnindexable(t *testing.T) {
	ctx := context.Background()
	m, stores := setup(t)

	_, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	require.NoError(t, err)
	st, err := m.Update(ctx, widget("foo", 1), filter.Record{"score": filter.Int(1)}, pk("a"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Removed: 2}, st)
	assert.Equal(t, 0, storeLen(t, stores, "widget_names"))
}

func TestCorruptEntry(t *testing.T) {
	ctx := context.Background()
	m, stores := setup(t)

	k, _ := KeyFor(m.entity, nameIndex, widget("foo", 1))
	require.NoError(t, stores.WithStoreMut(ctx, "widget_names", func(s datastore.Store) error {
		_, _, err := s.Insert(ctx, k.Encode(), []byte{9})
		return err
	}))
	_, err := m.Insert(ctx, widget("foo", 1), pk("a"))
	assert.True(t, errors.IsCorrupt(err))
}

// TestRandomOpsConsistency applies random upserts and deletes and checks that
// the index stores hold exactly the entries derived from the live records.
func TestRandomOpsConsistency(t *testing.T) {
	ctx := context.Background()
	m, stores := setup(t)
	rng := rand.New(rand.NewSource(42))
	live := map[string]filter.Record{}
	names := []string{"a", "b", "c", "d", "e"}

	for step := 0; step < 500; step++ {
		id := fmt.Sprintf("w%d", rng.Intn(8))
		old, exists := live[id]
		if exists && rng.Intn(4) == 0 {
			_, err := m.Remove(ctx, old, pk(id))
			require.NoError(t, err)
			delete(live, id)
		} else {
			next := widget(names[rng.Intn(len(names))], int64(rng.Intn(3)))
			_, err := m.Update(ctx, old, next, pk(id))
			if err != nil {
				require.True(t, errors.IsIndexViolation(err), "step %d: %v", step, err)
			} else {
				live[id] = next
			}
		}
		assertConsistent(t, m, stores, live)
	}
}

func assertConsistent(t *testing.T, m *Maintainer, stores *datastore.Registry, live map[string]filter.Record) {
	t.Helper()
	ctx := context.Background()
	for _, idx := range []schema.Index{nameIndex, scoreIndex} {
		want := map[string][]string{}
		for id, rec := range live {
			k, ok := KeyFor(m.entity, idx, rec)
			require.True(t, ok)
			want[string(k.Encode())] = append(want[string(k.Encode())], id)
		}
		for k := range want {
			sort.Strings(want[k])
		}

		got := map[string][]string{}
		require.NoError(t, stores.WithStore(ctx, idx.Store, func(s datastore.Reader) error {
			return s.Range(ctx, nil, nil, func(k, v []byte) bool {
				set, err := storagemodels.DecodeIndexValue(v)
				require.NoError(t, err)
				for _, held := range set.Keys() {
					got[string(k)] = append(got[string(k)], string(held))
				}
				if idx.Unique {
					assert.LessOrEqual(t, set.Len(), 1)
				}
				return true
			})
		}))
		require.Equal(t, want, got)
	}
}
