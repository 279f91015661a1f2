/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/datastore/memory"
	"github.com/suparena/entitykv/datastore/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, name string) datastore.Store {
		return memory.New(name)
	})
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	s := memory.New("widgets")

	_, _, err := s.Insert(ctx, []byte("a"), []byte("1"))
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Len())

	_, _, err = s.Insert(ctx, []byte("b"), []byte("2"))
	require.NoError(t, err)
	_, _, err = s.Remove(ctx, []byte("a"))
	require.NoError(t, err)

	require.NoError(t, s.Restore(snap))
	n, _ := s.Len(ctx)
	assert.Equal(t, 1, n)
	v, ok, _ := s.Get(ctx, []byte("a"))
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)
	b, _ := s.Bytes(ctx)
	assert.Equal(t, int64(2), b)

	assert.Error(t, s.Restore(fakeSnapshot{}))
}

type fakeSnapshot struct{}

func (fakeSnapshot) Len() int { return 0 }

func TestErrorInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	s := memory.New("widgets").WithInsertError(boom)

	_, _, err := s.Insert(ctx, []byte("a"), []byte("1"))
	assert.Same(t, boom, err)

	s.WithInsertError(nil).WithRemoveError(boom)
	_, _, err = s.Insert(ctx, []byte("a"), []byte("1"))
	require.NoError(t, err)
	_, _, err = s.Remove(ctx, []byte("a"))
	assert.Same(t, boom, err)
}

func TestInsertCopiesInput(t *testing.T) {
	ctx := context.Background()
	s := memory.New("widgets")
	key := []byte("k")
	val := []byte("v")
	_, _, err := s.Insert(ctx, key, val)
	require.NoError(t, err)
	key[0], val[0] = 'x', 'x'

	got, ok, _ := s.Get(ctx, []byte("k"))
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
