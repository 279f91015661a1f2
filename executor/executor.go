/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/suparena/entitykv/codec"
	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/metrics"
	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/sortkey"
	"github.com/suparena/entitykv/storagemodels"
)

// Entity is implemented by every stored type. Both methods must work on the
// zero value.
type Entity interface {
	// EntityPath names the schema entity the type is stored as.
	EntityPath() string
	// Values exposes the record's fields to keys, indexes and filters.
	Values() filter.Record
}

// Merger is implemented by types that merge an update into the stored
// record. Types without it are replaced by Update.
type Merger[E any] interface {
	Merge(existing E) E
}

// Row is a decoded record with its key and metadata.
type Row[E any] struct {
	Key      sortkey.SortKey
	Value    E
	Metadata storagemodels.Metadata
}

// Context carries the collaborators of one executor call. Only Resolver and
// Stores are required.
type Context struct {
	Resolver *registry.Resolver
	Stores   *datastore.Registry
	Codec    codec.Codec
	Types    *registry.TypeRegistry
	Clock    Clock
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (x *Context) codec() codec.Codec {
	if x.Codec == nil {
		return codec.Default
	}
	return x.Codec
}

func (x *Context) clock() Clock {
	if x.Clock == nil {
		return SystemClock{}
	}
	return x.Clock
}

func (x *Context) logger() *slog.Logger {
	if x.Logger == nil {
		return discard
	}
	return x.Logger
}

func (x *Context) resolve(path string) (*registry.ResolvedEntity, error) {
	if x.Resolver == nil || x.Stores == nil {
		return nil, fmt.Errorf("executor context needs a resolver and a store registry")
	}
	return x.Resolver.Resolve(path)
}

func pathOf[E Entity]() string {
	var zero E
	return zero.EntityPath()
}

func decode[E Entity](x *Context, store string, row storagemodels.DataRow) (E, error) {
	var v E
	if err := x.codec().Unmarshal(row.Value.Bytes, &v); err != nil {
		return v, errors.NewCorruptError(store, row.Key.String(), err)
	}
	return v, nil
}

func readRow(ctx context.Context, s datastore.Reader, key sortkey.SortKey) (storagemodels.DataRow, bool, error) {
	raw, ok, err := s.Get(ctx, storagemodels.KeyOf(key))
	if err != nil || !ok {
		return storagemodels.DataRow{}, false, err
	}
	v, err := storagemodels.DecodeDataValue(raw)
	if err != nil {
		return storagemodels.DataRow{}, false, errors.NewCorruptError(s.Name(), key.String(), err)
	}
	return storagemodels.DataRow{Key: key, Value: v}, true, nil
}
