/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitykv/datastore"
	"github.com/suparena/entitykv/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "go-json", cfg.CodecImpl().Name())
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "entitykv.yaml", `
backend: bolt
bolt:
  path: /tmp/data.db
log_level: debug
dynamodb:
  table: things
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, "/tmp/data.db", cfg.Bolt.Path)
	assert.Equal(t, "things", cfg.DynamoDB.Table)
	assert.Equal(t, "us-east-1", cfg.DynamoDB.Region, "defaults survive")
	assert.True(t, cfg.DynamoDB.ConsistentRead)
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "entitykv.yaml", "backend: memory\nbakend: bolt\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	envFile := writeFile(t, ".env", `
ENTITYKV_BACKEND=dynamodb
ENTITYKV_DDB_TABLE=from-file
ENTITYKV_DDB_REGION=eu-west-1
ENTITYKV_DDB_PAGE_SIZE=25
`)
	t.Setenv("ENTITYKV_DDB_TABLE", "from-process")
	t.Setenv("ENTITYKV_DDB_CREATE_TABLE", "true")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, "from-process", cfg.DynamoDB.Table, "process environment wins")
	assert.Equal(t, "eu-west-1", cfg.DynamoDB.Region)
	assert.Equal(t, int32(25), cfg.DynamoDB.PageSize)
	assert.True(t, cfg.DynamoDB.CreateTable)

	t.Setenv("ENTITYKV_DDB_PAGE_SIZE", "many")
	_, err = Load("", envFile)
	assert.True(t, errors.IsValidationError(err))

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, "backend"},
		{"bolt without path", func(c *Config) { c.Backend = BackendBolt; c.Bolt.Path = "" }, "bolt.path"},
		{"sqlite without dsn", func(c *Config) { c.Backend = BackendSQLite; c.SQLite.DSN = "" }, "sqlite.dsn"},
		{"dynamodb without table", func(c *Config) { c.Backend = BackendDynamoDB }, "dynamodb.table"},
		{"unknown codec", func(c *Config) { c.Codec = "xml" }, "codec"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ve *errors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfgs := map[string]*Config{
		"memory": Default(),
		"bolt": func() *Config {
			c := Default()
			c.Backend = BackendBolt
			c.Bolt.Path = filepath.Join(dir, "data.db")
			return c
		}(),
		"sqlite": func() *Config {
			c := Default()
			c.Backend = BackendSQLite
			c.SQLite.DSN = "file:" + filepath.Join(dir, "data.sqlite")
			return c
		}(),
	}
	for name, cfg := range cfgs {
		t.Run(name, func(t *testing.T) {
			reg, err := Open(ctx, cfg)
			require.NoError(t, err)
			err = reg.WithStoreMut(ctx, "things", func(s datastore.Store) error {
				_, _, err := s.Insert(ctx, []byte("k"), []byte("v"))
				return err
			})
			require.NoError(t, err)
			stats, err := reg.Stats(ctx)
			require.NoError(t, err)
			require.Len(t, stats, 1)
			assert.Equal(t, 1, stats[0].Entries)
			require.NoError(t, reg.Close())
		})
	}

	bad := Default()
	bad.Backend = "redis"
	_, err := Open(ctx, bad)
	assert.Error(t, err)
}
