/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitykv/codec"
	"github.com/suparena/entitykv/errors"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendBolt     Backend = "bolt"
	BackendSQLite   Backend = "sqlite"
	BackendDynamoDB Backend = "dynamodb"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ENTITYKV_"

// Config selects and configures the storage backend and ambient settings.
type Config struct {
	Backend    Backend        `yaml:"backend"`
	Bolt       BoltConfig     `yaml:"bolt"`
	SQLite     SQLiteConfig   `yaml:"sqlite"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`
	SchemaFile string         `yaml:"schema_file"`
	Codec      string         `yaml:"codec"`
	LogLevel   string         `yaml:"log_level"`
	LogFormat  string         `yaml:"log_format"`
}

// BoltConfig configures the bolt backend.
type BoltConfig struct {
	Path string `yaml:"path"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
}

// DynamoDBConfig configures the DynamoDB backend. Empty keys fall back to
// the default AWS credential chain.
type DynamoDBConfig struct {
	Table          string `yaml:"table"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	Endpoint       string `yaml:"endpoint"`
	CreateTable    bool   `yaml:"create_table"`
	PageSize       int32  `yaml:"page_size"`
	MaxRetries     int    `yaml:"max_retries"`
	ConsistentRead bool   `yaml:"consistent_read"`
}

// Default returns an in-memory configuration.
func Default() *Config {
	return &Config{
		Backend:   BackendMemory,
		Bolt:      BoltConfig{Path: "entitykv.db"},
		SQLite:    SQLiteConfig{DSN: "file:entitykv.sqlite"},
		Codec:     codec.NameGoJSON,
		LogLevel:  "info",
		LogFormat: "text",
		DynamoDB: DynamoDBConfig{
			Region:         "us-east-1",
			PageSize:       100,
			MaxRetries:     3,
			ConsistentRead: true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// ENTITYKV_* overrides. Variables from envFiles (.env format) apply unless
// the process environment sets the same name. An empty path skips the file.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	fileEnv := map[string]string{}
	if len(envFiles) > 0 {
		var err error
		if fileEnv, err = godotenv.Read(envFiles...); err != nil {
			return nil, fmt.Errorf("read env files: %w", err)
		}
	}
	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := fileEnv[name]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var backend string
	str("BACKEND", &backend)
	if backend != "" {
		c.Backend = Backend(backend)
	}
	str("BOLT_PATH", &c.Bolt.Path)
	str("SQLITE_DSN", &c.SQLite.DSN)
	str("SCHEMA_FILE", &c.SchemaFile)
	str("CODEC", &c.Codec)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("DDB_TABLE", &c.DynamoDB.Table)
	str("DDB_REGION", &c.DynamoDB.Region)
	str("DDB_ACCESS_KEY", &c.DynamoDB.AccessKey)
	str("DDB_SECRET_KEY", &c.DynamoDB.SecretKey)
	str("DDB_ENDPOINT", &c.DynamoDB.Endpoint)

	if v, ok := lookup(EnvPrefix + "DDB_CREATE_TABLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"DDB_CREATE_TABLE", err.Error())
		}
		c.DynamoDB.CreateTable = b
	}
	if v, ok := lookup(EnvPrefix + "DDB_PAGE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"DDB_PAGE_SIZE", err.Error())
		}
		c.DynamoDB.PageSize = int32(n)
	}
	return nil
}

// Validate checks that the selected backend is fully configured.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendBolt:
		if c.Bolt.Path == "" {
			return errors.NewValidationError("bolt.path", "required for the bolt backend")
		}
	case BackendSQLite:
		if c.SQLite.DSN == "" {
			return errors.NewValidationError("sqlite.dsn", "required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.NewValidationError("dynamodb.table", "required for the dynamodb backend")
		}
		if c.DynamoDB.Region == "" {
			return errors.NewValidationError("dynamodb.region", "required for the dynamodb backend")
		}
		if c.DynamoDB.PageSize < 0 || c.DynamoDB.MaxRetries < 0 {
			return errors.NewValidationError("dynamodb", "page_size and max_retries must not be negative")
		}
	default:
		return errors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	if _, ok := codec.ByName(c.Codec); !ok {
		return errors.NewValidationError("codec", fmt.Sprintf("unknown codec %q, want one of %s", c.Codec, strings.Join(codec.Names(), ", ")))
	}
	if _, err := c.Level(); err != nil {
		return errors.NewValidationError("log_level", err.Error())
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return errors.NewValidationError("log_format", fmt.Sprintf("unknown log format %q, want text or json", c.LogFormat))
	}
	return nil
}

// Level parses LogLevel. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// CodecImpl returns the configured codec.
func (c *Config) CodecImpl() codec.Codec {
	cd, ok := codec.ByName(c.Codec)
	if !ok {
		return codec.Default
	}
	return cd
}
