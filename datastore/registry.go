/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/suparena/entitykv/errors"
)

// Registry maps logical store names to open stores. Stores are opened lazily
// through the Opener on first borrow.
//
// Access goes through scoped borrows. A store may have any number of read
// borrows or exactly one write borrow at a time; a conflicting borrow fails
// with ErrBorrowConflict instead of waiting.
type Registry struct {
	mu      sync.Mutex
	opener  Opener
	allowed map[string]struct{}
	stores  map[string]*slot
	closers []io.Closer
	cp      *Checkpoint
}

type slot struct {
	store   Store
	readers int
	writer  bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOpener sets the factory used to open unregistered stores.
func WithOpener(o Opener) RegistryOption {
	return func(r *Registry) {
		r.opener = o
	}
}

// WithNames restricts lazy opening to the given store names.
func WithNames(names ...string) RegistryOption {
	return func(r *Registry) {
		if r.allowed == nil {
			r.allowed = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			r.allowed[n] = struct{}{}
		}
	}
}

// WithCloser adds a resource closed by Close after every store, such as the
// database file shared by a backend's stores.
func WithCloser(c io.Closer) RegistryOption {
	return func(r *Registry) {
		r.closers = append(r.closers, c)
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{stores: make(map[string]*slot)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an already opened store under its name.
func (r *Registry) Register(s Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[s.Name()]; exists {
		return fmt.Errorf("store %q already registered", s.Name())
	}
	return r.addLocked(s)
}

func (r *Registry) addLocked(s Store) error {
	if r.cp != nil {
		if err := r.cp.capture(s); err != nil {
			return err
		}
	}
	r.stores[s.Name()] = &slot{store: s}
	return nil
}

func (r *Registry) slotFor(ctx context.Context, name string) (*slot, error) {
	if sl, ok := r.stores[name]; ok {
		return sl, nil
	}
	if r.opener == nil {
		return nil, errors.NewStoreNotFoundError(name)
	}
	if r.allowed != nil {
		if _, ok := r.allowed[name]; !ok {
			return nil, errors.NewStoreNotFoundError(name)
		}
	}
	s, err := r.opener(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", name, err)
	}
	if err := r.addLocked(s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return r.stores[name], nil
}

// WithStore runs fn with a read borrow of the named store.
func (r *Registry) WithStore(ctx context.Context, name string, fn func(Reader) error) error {
	r.mu.Lock()
	sl, err := r.slotFor(ctx, name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if sl.writer {
		r.mu.Unlock()
		return fmt.Errorf("read borrow of %q: %w", name, errors.ErrBorrowConflict)
	}
	sl.readers++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		sl.readers--
		r.mu.Unlock()
	}()
	return fn(sl.store)
}

// WithStoreMut runs fn with the write borrow of the named store.
func (r *Registry) WithStoreMut(ctx context.Context, name string, fn func(Store) error) error {
	r.mu.Lock()
	sl, err := r.slotFor(ctx, name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if sl.writer || sl.readers > 0 {
		r.mu.Unlock()
		return fmt.Errorf("write borrow of %q: %w", name, errors.ErrBorrowConflict)
	}
	sl.writer = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		sl.writer = false
		r.mu.Unlock()
	}()
	return fn(sl.store)
}

// Names returns the names of open stores, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stats reports entry counts and byte estimates for every open store.
func (r *Registry) Stats(ctx context.Context) ([]Stats, error) {
	out := make([]Stats, 0)
	for _, name := range r.Names() {
		st := Stats{Name: name}
		err := r.WithStore(ctx, name, func(s Reader) error {
			var err error
			if st.Entries, err = s.Len(ctx); err != nil {
				return err
			}
			st.Bytes, err = s.Bytes(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("stats for %q: %w", name, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// Close closes every open store and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for name, sl := range r.stores {
		if err := sl.store.Close(); err != nil && first == nil {
			first = fmt.Errorf("close store %q: %w", name, err)
		}
		delete(r.stores, name)
	}
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	r.cp = nil
	return first
}

// Checkpoint captures the state of every open store, and of every store
// opened later, until Rollback or Release. Only one checkpoint may be
// active. Every store must implement Snapshotter.
func (r *Registry) Checkpoint() (*Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cp != nil {
		return nil, fmt.Errorf("checkpoint already active")
	}
	cp := &Checkpoint{snaps: make(map[string]Snapshot, len(r.stores))}
	for _, sl := range r.stores {
		if err := cp.capture(sl.store); err != nil {
			return nil, err
		}
	}
	r.cp = cp
	return cp, nil
}

// Rollback restores every store captured by cp and ends the checkpoint.
func (r *Registry) Rollback(cp *Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cp != cp || cp == nil {
		return fmt.Errorf("checkpoint is not active")
	}
	r.cp = nil
	for name, snap := range cp.snaps {
		sl, ok := r.stores[name]
		if !ok {
			continue
		}
		if sl.writer || sl.readers > 0 {
			return fmt.Errorf("rollback of %q: %w", name, errors.ErrBorrowConflict)
		}
		if err := sl.store.(Snapshotter).Restore(snap); err != nil {
			return fmt.Errorf("rollback of %q: %w", name, err)
		}
	}
	return nil
}

// Release ends the checkpoint and keeps all changes.
func (r *Registry) Release(cp *Checkpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cp == cp {
		r.cp = nil
	}
}

// Checkpoint holds the captured store states.
type Checkpoint struct {
	snaps map[string]Snapshot
}

func (cp *Checkpoint) capture(s Store) error {
	ss, ok := s.(Snapshotter)
	if !ok {
		return fmt.Errorf("store %q does not support snapshots", s.Name())
	}
	cp.snaps[s.Name()] = ss.Snapshot()
	return nil
}

// Stores returns the names captured by the checkpoint, sorted.
func (cp *Checkpoint) Stores() []string {
	names := make([]string, 0, len(cp.snaps))
	for n := range cp.snaps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
