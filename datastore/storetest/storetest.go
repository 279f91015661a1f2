/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package storetest holds the behavior every datastore.Store backend must
// share. Backend packages call Run from their tests.
package storetest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/datastore"
)

// Factory opens an empty store with the given name.
type Factory func(t *testing.T, name string) datastore.Store

// Run exercises a backend through the datastore.Store contract.
func Run(t *testing.T, open Factory) {
	t.Run("Empty", func(t *testing.T) { testEmpty(t, open(t, "empty")) })
	t.Run("InsertGetRemove", func(t *testing.T) { testInsertGetRemove(t, open(t, "crud")) })
	t.Run("RangeInclusive", func(t *testing.T) { testRange(t, open(t, "range")) })
	t.Run("FirstLast", func(t *testing.T) { testFirstLast(t, open(t, "ends")) })
	t.Run("BinaryKeys", func(t *testing.T) { testBinaryKeys(t, open(t, "binary")) })
	t.Run("Isolation", func(t *testing.T) { testIsolation(t, open(t, "left"), open(t, "right")) })
}

func testEmpty(t *testing.T, s datastore.Store) {
	ctx := context.Background()
	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, ok, err := s.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.First(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Last(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, existed, err := s.Remove(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, existed)

	calls := 0
	require.NoError(t, s.Range(ctx, nil, nil, func(_, _ []byte) bool { calls++; return true }))
	assert.Zero(t, calls)
}

func testInsertGetRemove(t *testing.T, s datastore.Store) {
	ctx := context.Background()

	prev, existed, err := s.Insert(ctx, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Nil(t, prev)

	prev, existed, err = s.Insert(ctx, []byte("k1"), []byte("v2"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []byte("v1"), prev)

	v, ok, err := s.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, err := s.Bytes(ctx)
	require.NoError(t, err)
	assert.Positive(t, b)

	prev, existed, err = s.Remove(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []byte("v2"), prev)

	_, ok, err = s.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRange(t *testing.T, s datastore.Store) {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, _, err := s.Insert(ctx, []byte(fmt.Sprintf("k%02d", i)), []byte{byte(i)})
		require.NoError(t, err)
	}

	collect := func(start, end []byte, limit int) []string {
		var keys []string
		require.NoError(t, s.Range(ctx, start, end, func(k, _ []byte) bool {
			keys = append(keys, string(k))
			return limit <= 0 || len(keys) < limit
		}))
		return keys
	}

	assert.Equal(t, []string{"k03", "k04", "k05"}, collect([]byte("k03"), []byte("k05"), 0))
	assert.Equal(t, []string{"k03", "k04", "k05"}, collect([]byte("k025"), []byte("k055"), 0))
	assert.Equal(t, []string{"k08", "k09"}, collect([]byte("k08"), nil, 0))
	assert.Equal(t, []string{"k00", "k01"}, collect(nil, []byte("k01"), 0))
	assert.Len(t, collect(nil, nil, 0), 10)
	assert.Equal(t, []string{"k00", "k01", "k02"}, collect(nil, nil, 3))
	assert.Empty(t, collect([]byte("k05"), []byte("k04"), 0))
	assert.Equal(t, []string{"k07"}, collect([]byte("k07"), []byte("k07"), 0))
}

func testFirstLast(t *testing.T, s datastore.Store) {
	ctx := context.Background()
	for _, k := range []string{"m", "a", "z", "q"} {
		_, _, err := s.Insert(ctx, []byte(k), []byte(k))
		require.NoError(t, err)
	}
	first, ok, err := s.First(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), first)

	last, ok, err := s.Last(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("z"), last)
}

func testBinaryKeys(t *testing.T, s datastore.Store) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		k := make([]byte, 1+rng.Intn(8))
		rng.Read(k)
		seen[string(k)] = true
		_, _, err := s.Insert(ctx, k, []byte{0x00, 0xFF})
		require.NoError(t, err)
	}
	want := make([]string, 0, len(seen))
	for k := range seen {
		want = append(want, k)
	}
	sort.Strings(want)

	var got []string
	require.NoError(t, s.Range(ctx, nil, nil, func(k, v []byte) bool {
		got = append(got, string(k))
		assert.Equal(t, []byte{0x00, 0xFF}, v)
		return true
	}))
	assert.Equal(t, want, got)
}

func testIsolation(t *testing.T, left, right datastore.Store) {
	ctx := context.Background()
	_, _, err := left.Insert(ctx, []byte("k"), []byte("left"))
	require.NoError(t, err)

	_, ok, err := right.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEqual(t, left.Name(), right.Name())
}
