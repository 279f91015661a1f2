/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package bolt stores each logical store as a bucket of one bbolt file.
package bolt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/suparena/entitykv/datastore"
)

// rangeBatch bounds how many entries Range reads per transaction. Callbacks
// run outside the transaction so they may write to other stores of the same
// file.
const rangeBatch = 256

// DB is an open bbolt file.
type DB struct {
	db   *bolt.DB
	path string
}

// Open opens or creates the file at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	db, err := bolt.Open(path, 0o666, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open file: %s", path)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the file path.
func (db *DB) Path() string { return db.path }

// Close closes the file.
func (db *DB) Close() error { return db.db.Close() }

// Store returns the store backed by bucket name, creating the bucket.
func (db *DB) Store(name string) (*Store, error) {
	err := db.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating bucket: %s", name)
	}
	return &Store{db: db.db, name: name, bucket: []byte(name)}, nil
}

// Opener opens buckets of db on demand.
func (db *DB) Opener() datastore.Opener {
	return func(_ context.Context, name string) (datastore.Store, error) {
		return db.Store(name)
	}
}

// Store is one bucket.
type Store struct {
	db     *bolt.DB
	name   string
	bucket []byte
}

var _ datastore.Store = (*Store)(nil)

func (s *Store) Name() string { return s.name }

func (s *Store) view(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return errors.Errorf("boltdb: bucket '%s' not found", s.name)
		}
		return fn(b)
	})
}

func (s *Store) update(ctx context.Context, fn func(b *bolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return errors.Errorf("boltdb: bucket '%s' not found", s.name)
		}
		return fn(b)
	})
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func (s *Store) Get(ctx context.Context, key []byte) (value []byte, ok bool, err error) {
	err = s.view(ctx, func(b *bolt.Bucket) error {
		if v := b.Get(key); v != nil {
			value, ok = clone(v), true
		}
		return nil
	})
	return value, ok, errors.Wrap(err, "get")
}

func (s *Store) Range(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	from := clone(start)
	for {
		type entry struct{ k, v []byte }
		batch := make([]entry, 0, rangeBatch)
		err := s.view(ctx, func(b *bolt.Bucket) error {
			c := b.Cursor()
			var k, v []byte
			if from == nil {
				k, v = c.First()
			} else {
				k, v = c.Seek(from)
			}
			for ; k != nil && len(batch) < rangeBatch; k, v = c.Next() {
				if end != nil && bytes.Compare(k, end) > 0 {
					break
				}
				batch = append(batch, entry{clone(k), clone(v)})
			}
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "range")
		}
		for _, e := range batch {
			if !fn(e.k, e.v) {
				return nil
			}
		}
		if len(batch) < rangeBatch {
			return nil
		}
		// Smallest key strictly after the last one read.
		from = append(batch[len(batch)-1].k, 0x00)
	}
}

func (s *Store) Insert(ctx context.Context, key, value []byte) (prev []byte, existed bool, err error) {
	err = s.update(ctx, func(b *bolt.Bucket) error {
		if v := b.Get(key); v != nil {
			prev, existed = clone(v), true
		}
		return b.Put(key, value)
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "insert")
	}
	return prev, existed, nil
}

func (s *Store) Remove(ctx context.Context, key []byte) (prev []byte, existed bool, err error) {
	err = s.update(ctx, func(b *bolt.Bucket) error {
		v := b.Get(key)
		if v == nil {
			return nil
		}
		prev, existed = clone(v), true
		return b.Delete(key)
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "remove")
	}
	return prev, existed, nil
}

func (s *Store) First(ctx context.Context) (key []byte, ok bool, err error) {
	err = s.view(ctx, func(b *bolt.Bucket) error {
		if k, _ := b.Cursor().First(); k != nil {
			key, ok = clone(k), true
		}
		return nil
	})
	return key, ok, errors.Wrap(err, "first")
}

func (s *Store) Last(ctx context.Context) (key []byte, ok bool, err error) {
	err = s.view(ctx, func(b *bolt.Bucket) error {
		if k, _ := b.Cursor().Last(); k != nil {
			key, ok = clone(k), true
		}
		return nil
	})
	return key, ok, errors.Wrap(err, "last")
}

func (s *Store) Len(ctx context.Context) (n int, err error) {
	err = s.view(ctx, func(b *bolt.Bucket) error {
		n = b.Stats().KeyN
		return nil
	})
	return n, errors.Wrap(err, "len")
}

func (s *Store) Bytes(ctx context.Context) (n int64, err error) {
	err = s.view(ctx, func(b *bolt.Bucket) error {
		st := b.Stats()
		n = int64(st.LeafInuse + st.BranchInuse + st.InlineBucketInuse)
		return nil
	})
	return n, errors.Wrap(err, "bytes")
}

// Close is a no-op; the file is closed by DB.Close.
func (s *Store) Close() error { return nil }
