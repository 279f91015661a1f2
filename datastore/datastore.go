/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
)

// Reader is the read side of a Store.
type Reader interface {
	// Name returns the logical store name.
	Name() string

	// Get returns the value at key.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)

	// Range calls fn for every entry with start <= key <= end in ascending
	// key order until fn returns false. A nil start or end leaves that side
	// unbounded.
	Range(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error

	// First returns the smallest key.
	First(ctx context.Context) (key []byte, ok bool, err error)

	// Last returns the largest key.
	Last(ctx context.Context) (key []byte, ok bool, err error)

	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)

	// Bytes estimates the memory held by keys and values.
	Bytes(ctx context.Context) (int64, error)
}

// Store is a named, persistent ordered map from encoded keys to opaque values.
type Store interface {
	Reader

	// Insert writes value at key and returns the previous value, if any.
	Insert(ctx context.Context, key, value []byte) (prev []byte, existed bool, err error)

	// Remove deletes key and returns the value it held, if any.
	Remove(ctx context.Context, key []byte) (prev []byte, existed bool, err error)

	// Close releases backend resources.
	Close() error
}

// Snapshotter is implemented by stores that can capture and restore their
// whole state cheaply.
type Snapshotter interface {
	Snapshot() Snapshot
	Restore(Snapshot) error
}

// Snapshot is an opaque, backend-specific store state.
type Snapshot interface {
	Len() int
}

// Opener creates the store for name on first use.
type Opener func(ctx context.Context, name string) (Store, error)

// Stats describes one open store.
type Stats struct {
	Name    string `json:"name" yaml:"name"`
	Entries int    `json:"entries" yaml:"entries"`
	Bytes   int64  `json:"bytes" yaml:"bytes"`
}
