/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"fmt"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/datastore/bolt"
	"github.com/suparena/entitykv/datastore/ddb"
	"github.com/suparena/entitykv/datastore/memory"
	"github.com/suparena/entitykv/datastore/sqlite"
)

// Open builds a store registry for the configured backend. Closing the
// registry closes the underlying database.
func Open(ctx context.Context, cfg *Config) (*datastore.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendMemory:
		return datastore.NewRegistry(datastore.WithOpener(memory.Opener())), nil

	case BackendBolt:
		db, err := bolt.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, err
		}
		return datastore.NewRegistry(datastore.WithOpener(db.Opener()), datastore.WithCloser(db)), nil

	case BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		return datastore.NewRegistry(datastore.WithOpener(db.Opener()), datastore.WithCloser(db)), nil

	case BackendDynamoDB:
		d := cfg.DynamoDB
		client, err := ddb.NewClient(ctx, ddb.ClientConfig{
			Region:    d.Region,
			AccessKey: d.AccessKey,
			SecretKey: d.SecretKey,
			Endpoint:  d.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		if d.CreateTable {
			if err := ddb.EnsureTable(ctx, client, d.Table); err != nil {
				return nil, err
			}
		}
		opts := []ddb.Option{ddb.WithConsistentRead(d.ConsistentRead)}
		if d.PageSize > 0 {
			opts = append(opts, ddb.WithPageSize(d.PageSize))
		}
		if d.MaxRetries > 0 {
			opts = append(opts, ddb.WithMaxRetries(d.MaxRetries))
		}
		return datastore.NewRegistry(datastore.WithOpener(ddb.Opener(client, d.Table, opts...))), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
