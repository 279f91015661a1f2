/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory datastore.Store backed by a persistent
// sorted map. Snapshots share structure with the live map and cost O(1).
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/immutable"

	"github.com/suparena/entitykv/datastore"
)

type byteComparer struct{}

func (byteComparer) Compare(a, b []byte) int { return bytes.Compare(a, b) }

// Store is an in-memory ordered store.
type Store struct {
	name string

	mu    sync.RWMutex
	m     *immutable.SortedMap[[]byte, []byte]
	bytes int64

	insertErr error
	removeErr error
}

var (
	_ datastore.Store       = (*Store)(nil)
	_ datastore.Snapshotter = (*Store)(nil)
)

// New returns an empty store.
func New(name string) *Store {
	return &Store{
		name: name,
		m:    immutable.NewSortedMap[[]byte, []byte](byteComparer{}),
	}
}

// Opener opens a fresh memory store for every name.
func Opener() datastore.Opener {
	return func(_ context.Context, name string) (datastore.Store, error) {
		return New(name), nil
	}
}

// WithInsertError makes Insert fail with err. Pass nil to clear.
func (s *Store) WithInsertError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
	return s
}

// WithRemoveError makes Remove fail with err. Pass nil to clear.
func (s *Store) WithRemoveError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeErr = err
	return s
}

func (s *Store) Name() string { return s.name }

func (s *Store) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m.Get(key)
	return v, ok, nil
}

func (s *Store) Range(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	s.mu.RLock()
	m := s.m
	s.mu.RUnlock()

	itr := m.Iterator()
	if start != nil {
		itr.Seek(start)
	}
	for !itr.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		k, v, _ := itr.Next()
		if end != nil && bytes.Compare(k, end) > 0 {
			return nil
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

func (s *Store) Insert(_ context.Context, key, value []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, false, s.insertErr
	}
	prev, existed := s.m.Get(key)
	if existed {
		s.bytes -= int64(len(key) + len(prev))
	}
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	s.m = s.m.Set(k, v)
	s.bytes += int64(len(k) + len(v))
	return prev, existed, nil
}

func (s *Store) Remove(_ context.Context, key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeErr != nil {
		return nil, false, s.removeErr
	}
	prev, existed := s.m.Get(key)
	if !existed {
		return nil, false, nil
	}
	s.m = s.m.Delete(key)
	s.bytes -= int64(len(key) + len(prev))
	return prev, true, nil
}

func (s *Store) First(_ context.Context) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	itr := s.m.Iterator()
	itr.First()
	k, _, ok := itr.Next()
	return k, ok, nil
}

func (s *Store) Last(_ context.Context) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	itr := s.m.Iterator()
	itr.Last()
	k, _, ok := itr.Prev()
	return k, ok, nil
}

func (s *Store) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Len(), nil
}

func (s *Store) Bytes(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes, nil
}

func (s *Store) Close() error { return nil }

type snapshot struct {
	m     *immutable.SortedMap[[]byte, []byte]
	bytes int64
}

func (sn snapshot) Len() int { return sn.m.Len() }

// Snapshot captures the current contents.
func (s *Store) Snapshot() datastore.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{m: s.m, bytes: s.bytes}
}

// Restore replaces the contents with a snapshot taken from this store type.
func (s *Store) Restore(snap datastore.Snapshot) error {
	sn, ok := snap.(snapshot)
	if !ok {
		return fmt.Errorf("memory store %q: foreign snapshot %T", s.name, snap)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = sn.m
	s.bytes = sn.bytes
	return nil
}
