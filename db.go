/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitykv

import (
	"context"
	"fmt"

	"github.com/suparena/entitykv/codec"
	"github.com/suparena/entitykv/config"
	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/executor"
	"github.com/suparena/entitykv/metrics"
	"github.com/suparena/entitykv/query"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
	"github.com/suparena/entitykv/sortkey"
)

// DB ties a schema to a store registry.
type DB struct {
	schema   *schema.Schema
	resolver *registry.Resolver
	stores   *datastore.Registry
	types    *registry.TypeRegistry
	codec    codec.Codec
	clock    executor.Clock
	metrics  *metrics.Metrics
	logger   *Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *Logger) Option {
	return func(db *DB) { db.logger = l }
}

// WithCodec sets the record codec. The default is codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(db *DB) { db.codec = c }
}

// WithClock sets the clock stamped into record metadata.
func WithClock(c executor.Clock) Option {
	return func(db *DB) { db.clock = c }
}

// WithMetrics shares m instead of a private Metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(db *DB) { db.metrics = m }
}

// WithTypes sets the type registry used by SaveRaw and Scan.
func WithTypes(tr *registry.TypeRegistry) Option {
	return func(db *DB) { db.types = tr }
}

// New returns a DB over stores. Every entity of sch is resolved up front so
// a broken parent chain fails here rather than on first use.
func New(sch *schema.Schema, stores *datastore.Registry, opts ...Option) (*DB, error) {
	if sch == nil || stores == nil {
		return nil, fmt.Errorf("entitykv: schema and store registry are required")
	}
	db := &DB{
		schema:   sch,
		resolver: registry.NewResolver(sch),
		stores:   stores,
		types:    registry.NewTypeRegistry(),
		codec:    codec.Default,
		clock:    executor.SystemClock{},
		metrics:  metrics.New(),
		logger:   NoopLogger(),
	}
	for _, opt := range opts {
		opt(db)
	}
	if err := db.resolver.ResolveAll(); err != nil {
		return nil, err
	}
	return db, nil
}

// Open builds the configured backend and returns a DB over it. A nil sch is
// loaded from cfg.SchemaFile. The logger and codec come from cfg unless
// options override them.
func Open(ctx context.Context, cfg *config.Config, sch *schema.Schema, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sch == nil {
		if cfg.SchemaFile == "" {
			return nil, fmt.Errorf("entitykv: no schema given and no schema_file configured")
		}
		var err error
		if sch, err = schema.LoadFile(cfg.SchemaFile); err != nil {
			return nil, err
		}
	}
	level, _ := cfg.Level()
	logger := NewTextLogger(level)
	if cfg.LogFormat == "json" {
		logger = NewJSONLogger(level)
	}
	logger = logger.WithBackend(string(cfg.Backend))

	stores, err := config.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	base := []Option{WithLogger(logger), WithCodec(cfg.CodecImpl())}
	db, err := New(sch, stores, append(base, opts...)...)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	db.logger.Debug("opened", "entities", sch.Len(), "codec", db.codec.Name())
	return db, nil
}

// Close closes every store and the backend.
func (db *DB) Close() error { return db.stores.Close() }

func (db *DB) Schema() *schema.Schema { return db.schema }
func (db *DB) Resolver() *registry.Resolver { return db.resolver }
func (db *DB) Stores() *datastore.Registry { return db.stores }
func (db *DB) Types() *registry.TypeRegistry { return db.types }
func (db *DB) Metrics() *metrics.Metrics { return db.metrics }
func (db *DB) Logger() *Logger { return db.logger }

// Exec returns the executor context for direct executor calls.
func (db *DB) Exec() *executor.Context {
	return &executor.Context{
		Resolver: db.resolver,
		Stores:   db.stores,
		Codec:    db.codec,
		Types:    db.types,
		Clock:    db.clock,
		Metrics:  db.metrics,
		Logger:   db.logger.Logger,
	}
}

// Stats opens every store the schema names, refreshes store sizes and
// returns all counters.
func (db *DB) Stats(ctx context.Context) (metrics.Snapshot, error) {
	for _, name := range db.schema.Stores() {
		if err := db.stores.WithStore(ctx, name, func(datastore.Reader) error { return nil }); err != nil {
			return metrics.Snapshot{}, err
		}
	}
	if err := db.metrics.Refresh(ctx, db.stores); err != nil {
		return metrics.Snapshot{}, err
	}
	return db.metrics.Snapshot(), nil
}

// SaveRaw saves a codec-encoded record of the entity at path. The path must
// have a type registered with Types.
func (db *DB) SaveRaw(ctx context.Context, path string, q query.SaveQuery) (sortkey.SortKey, error) {
	return executor.SaveRaw(ctx, db.Exec(), path, q)
}

// Scan decodes every row of a data store.
func (db *DB) Scan(ctx context.Context, store string) ([]executor.StoredRow, error) {
	rows, err := executor.ScanStore(ctx, db.Exec(), store)
	if err != nil {
		return nil, err
	}
	db.logger.WithStore(store).Debug("scan", "rows", len(rows))
	return rows, nil
}

// Atomically runs fn and undoes every store change it made when it returns
// an error. Stores must support snapshots (the memory backend does), and
// only one Atomically may run at a time.
func (db *DB) Atomically(fn func() error) error {
	cp, err := db.stores.Checkpoint()
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rerr := db.stores.Rollback(cp); rerr != nil {
			db.logger.Error("rollback failed", "error", rerr, "stores", cp.Stores())
			return fmt.Errorf("%w (rollback failed: %v)", err, rerr)
		}
		return err
	}
	db.stores.Release(cp)
	return nil
}
