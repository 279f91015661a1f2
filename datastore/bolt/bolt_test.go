/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package bolt_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/datastore/bolt"
	"github.com/suparena/entitykv/datastore/storetest"
)

func openDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "data", "entitykv.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBoltStore(t *testing.T) {
	db := openDB(t)
	storetest.Run(t, func(t *testing.T, name string) datastore.Store {
		s, err := db.Store(name)
		require.NoError(t, err)
		return s
	})
}

func TestRangeAcrossBatches(t *testing.T) {
	ctx := context.Background()
	s, err := openDB(t).Store("many")
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		_, _, err := s.Insert(ctx, []byte(fmt.Sprintf("k%04d", i)), []byte("v"))
		require.NoError(t, err)
	}

	var n int
	var last string
	require.NoError(t, s.Range(ctx, []byte("k0100"), []byte("k0899"), func(k, _ []byte) bool {
		if last != "" {
			assert.Less(t, last, string(k))
		}
		last = string(k)
		n++
		return true
	}))
	assert.Equal(t, 800, n)
	assert.Equal(t, "k0899", last)
}

func TestWriteDuringRange(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	src, err := db.Store("src")
	require.NoError(t, err)
	dst, err := db.Store("dst")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, _, err := src.Insert(ctx, []byte{byte('a' + i)}, []byte("v"))
		require.NoError(t, err)
	}
	require.NoError(t, src.Range(ctx, nil, nil, func(k, v []byte) bool {
		_, _, err := dst.Insert(ctx, k, v)
		return err == nil
	}))
	n, err := dst.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "entitykv.bolt")

	db, err := bolt.Open(path)
	require.NoError(t, err)
	s, err := db.Store("widgets")
	require.NoError(t, err)
	_, _, err = s.Insert(ctx, []byte("k"), []byte("v"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = bolt.Open(path)
	require.NoError(t, err)
	defer db.Close()
	reg := datastore.NewRegistry(datastore.WithOpener(db.Opener()))
	err = reg.WithStore(ctx, "widgets", func(r datastore.Reader) error {
		v, ok, err := r.Get(ctx, []byte("k"))
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), v)
		return err
	})
	require.NoError(t, err)
}
