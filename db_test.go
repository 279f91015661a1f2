/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitykv_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitykv"
	"github.com/suparena/entitykv/config"
	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/datastore/memory"
	"github.com/suparena/entitykv/datastore/testmodels"
	"github.com/suparena/entitykv/errors"
	"github.com/suparena/entitykv/executor"
	"github.com/suparena/entitykv/filter"
	"github.com/suparena/entitykv/query"
	"github.com/suparena/entitykv/schema"
)

func ulid(t *testing.T, n int) strfmt.ULID {
	t.Helper()
	id, err := strfmt.ParseULID(fmt.Sprintf("01HQ3Z8V00000000000000%04d", n))
	require.NoError(t, err)
	return id
}

func newDB(t *testing.T, opts ...entitykv.Option) *entitykv.DB {
	t.Helper()
	stores := datastore.NewRegistry(datastore.WithOpener(memory.Opener()))
	db, err := entitykv.New(testmodels.Schema(), stores, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	testmodels.Register(db.Types())
	return db
}

func TestCollection(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, entitykv.WithClock(executor.FixedClock(42)))

	shops := entitykv.MustCollection[testmodels.Shop](db)
	widgets := entitykv.MustCollection[testmodels.Widget](db)

	_, err := shops.Create(ctx, testmodels.Shop{ID: "s1", Name: "One"})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err := widgets.Create(ctx, testmodels.Widget{ID: ulid(t, i), ShopID: "s1", Name: fmt.Sprintf("w%d", i), Score: int64(i * 10)})
		require.NoError(t, err)
	}

	got, err := widgets.Get(ctx, filter.Text("s1"), filter.Ulid(ulid(t, 2)))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w2", got.Name)

	missing, err := widgets.Get(ctx, filter.Text("s1"), filter.Ulid(ulid(t, 9)))
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := shops.Exists(ctx, filter.Text("s1"))
	require.NoError(t, err)
	assert.True(t, ok)

	rows, err := widgets.Load(ctx, query.LoadQuery{
		Selector: query.Prefix{Key: query.Texts("s1")},
		Sort:     query.By("-score"),
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "w3", rows[0].Value.Name)
	assert.Equal(t, int64(42), rows[0].Metadata.Created)

	_, err = widgets.Update(ctx, testmodels.Widget{ID: ulid(t, 1), ShopID: "s1", Score: 99})
	require.NoError(t, err)
	found, err := widgets.FindBy(ctx, []string{"score"}, filter.Int(99))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "w1", found[0].Value.Name)

	_, err = widgets.Replace(ctx, testmodels.Widget{ID: ulid(t, 4), ShopID: "s1", Name: "w2"})
	assert.True(t, errors.IsIndexViolation(err))

	n, err := widgets.Count(ctx, query.LoadQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	removed, err := widgets.Delete(ctx, query.DeleteQuery{Filter: filter.Where("score", filter.Lt, filter.Int(50))})
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	keys, err := widgets.SaveMany(ctx, query.Replace, []testmodels.Widget{
		{ID: ulid(t, 5), ShopID: "s1", Name: "w5"},
		{ID: ulid(t, 6), ShopID: "s1", Name: "w6"},
	})
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Stores["widgets"].Entries)
	assert.Equal(t, uint64(1), stats.Entities[testmodels.WidgetPath].UniqueViolations)
}

func TestNewCollectionUnknownEntity(t *testing.T) {
	db, err := entitykv.New(schema.NewBuilder().MustBuild(), datastore.NewRegistry())
	require.NoError(t, err)
	_, err = entitykv.NewCollection[testmodels.Shop](db)
	assert.True(t, errors.IsEntityNotFound(err))
	assert.Panics(t, func() { entitykv.MustCollection[testmodels.Shop](db) })
}

func TestNewRejectsBrokenSchema(t *testing.T) {
	sch := schema.NewBuilder().Add(schema.Entity{
		Path:       "a.Child",
		Store:      "children",
		PrimaryKey: "id",
		Parents:    []schema.Parent{{Entity: "a.Missing", Field: "parent_id"}},
		Fields:     []schema.Field{{Name: "id"}, {Name: "parent_id"}},
	}).MustBuild()
	_, err := entitykv.New(sch, datastore.NewRegistry())
	assert.True(t, errors.IsEntityNotFound(err))

	_, err = entitykv.New(nil, datastore.NewRegistry())
	assert.Error(t, err)
}

func TestAtomically(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	shops := entitykv.MustCollection[testmodels.Shop](db)
	_, err := shops.Create(ctx, testmodels.Shop{ID: "keep"})
	require.NoError(t, err)

	boom := fmt.Errorf("abort")
	err = db.Atomically(func() error {
		if _, err := shops.Create(ctx, testmodels.Shop{ID: "drop"}); err != nil {
			return err
		}
		if _, err := entitykv.MustCollection[testmodels.Widget](db).Create(ctx, testmodels.Widget{ID: ulid(t, 1), ShopID: "drop", Name: "x"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := shops.Count(ctx, query.LoadQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	w, err := entitykv.MustCollection[testmodels.Widget](db).Count(ctx, query.LoadQuery{})
	require.NoError(t, err)
	assert.Zero(t, w)
	found, err := entitykv.MustCollection[testmodels.Widget](db).FindBy(ctx, []string{"name"}, filter.Text("x"))
	require.NoError(t, err)
	assert.Empty(t, found, "index stores opened inside the call roll back too")

	require.NoError(t, db.Atomically(func() error {
		_, err := shops.Create(ctx, testmodels.Shop{ID: "also"})
		return err
	}))
	n, err = shops.Count(ctx, query.LoadQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveRawAndScan(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	_, err := db.SaveRaw(ctx, testmodels.ShopPath, query.SaveQuery{Mode: query.Create, Record: []byte(`{"id":"s1","name":"raw"}`)})
	require.NoError(t, err)
	_, err = db.SaveRaw(ctx, testmodels.SettingsPath, query.SaveQuery{Mode: query.Replace, Record: []byte(`{"shopId":"s1","theme":"light"}`)})
	require.NoError(t, err)

	rows, err := db.Scan(ctx, "shops")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, &testmodels.Shop{ID: "s1", Name: "raw"}, rows[0].Value)
	assert.Equal(t, &testmodels.Settings{ShopID: "s1", Theme: "light"}, rows[1].Value)
}

func TestOpenFromConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	raw, err := yaml.Marshal(testmodels.Schema())
	require.NoError(t, err)
	schemaFile := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaFile, raw, 0o600))

	cfg := config.Default()
	cfg.Backend = config.BackendBolt
	cfg.Bolt.Path = filepath.Join(dir, "data.db")
	cfg.SchemaFile = schemaFile

	var logs bytes.Buffer
	logger := entitykv.NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err := entitykv.Open(ctx, cfg, nil, entitykv.WithLogger(logger))
	require.NoError(t, err)
	_, err = entitykv.MustCollection[testmodels.Shop](db).Create(ctx, testmodels.Shop{ID: "s1"})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Contains(t, logs.String(), "entity=shop.Shop")

	db, err = entitykv.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer db.Close()
	got, err := entitykv.MustCollection[testmodels.Shop](db).Get(ctx, filter.Text("s1"))
	require.NoError(t, err)
	require.NotNil(t, got, "bolt keeps data across opens")

	cfg.SchemaFile = ""
	_, err = entitykv.Open(ctx, cfg, nil)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	info := entitykv.GetVersionInfo()
	assert.Equal(t, entitykv.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
