/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitykv"
	"github.com/suparena/entitykv/config"
	"github.com/suparena/entitykv/datastore/testmodels"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fixture writes a schema file and a bolt-backed config holding one shop.
func fixture(t *testing.T) (configFile, schemaFile string) {
	t.Helper()
	dir := t.TempDir()

	raw, err := yaml.Marshal(testmodels.Schema())
	require.NoError(t, err)
	schemaFile = filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaFile, raw, 0o600))

	cfg := config.Default()
	cfg.Backend = config.BackendBolt
	cfg.Bolt.Path = filepath.Join(dir, "data.db")
	cfg.SchemaFile = schemaFile
	raw, err = yaml.Marshal(cfg)
	require.NoError(t, err)
	configFile = filepath.Join(dir, "entitykv.yaml")
	require.NoError(t, os.WriteFile(configFile, raw, 0o600))

	ctx := context.Background()
	db, err := entitykv.Open(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = entitykv.MustCollection[testmodels.Shop](db).Create(ctx, testmodels.Shop{ID: "s1", Name: "first"})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return configFile, schemaFile
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "entitykv "+entitykv.Version+" (commit ")

	out, err = run(t, "version", "--format", "json")
	require.NoError(t, err)
	var info entitykv.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, entitykv.Version, info.Version)

	_, err = run(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestSchemaValidate(t *testing.T) {
	_, schemaFile := fixture(t)

	out, err := run(t, "schema", "validate", "--format", "json", schemaFile)
	require.NoError(t, err)
	var report SchemaReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Valid)
	assert.Equal(t, testmodels.Schema().Paths(), report.Entities)
	assert.Equal(t, testmodels.Schema().Stores(), report.Stores)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("entities:\n  - path: a\n    fields: []\n"), 0o600))
	_, err = run(t, "schema", "validate", broken)
	assert.Error(t, err)

	_, err = run(t, "schema", "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	configFile, _ := fixture(t)

	out, err := run(t, "stats", "--config", configFile, "--format", "json")
	require.NoError(t, err)
	var stores map[string]struct {
		Entries int `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stores))
	assert.Equal(t, 1, stores["shops"].Entries)
	assert.Contains(t, stores, "widgets_by_name")

	out, err = run(t, "stats", "--config", configFile)
	require.NoError(t, err)
	assert.Contains(t, out, "shops")
}

func TestScanCommand(t *testing.T) {
	configFile, _ := fixture(t)

	out, err := run(t, "scan", "shops", "--config", configFile, "--format", "json")
	require.NoError(t, err)
	var rows []ScanRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, testmodels.ShopPath, rows[0].Path)
	assert.Equal(t, map[string]any{"id": "s1", "name": "first"}, rows[0].Value)

	_, err = run(t, "scan", "--config", configFile)
	assert.Error(t, err, "store name is required")
}
