// Package config loads entitykv settings from YAML, .env files and
// ENTITYKV_* environment variables, and opens the configured store backend.
//
// Example YAML:
//
//	backend: sqlite
//	sqlite:
//	  dsn: file:/var/lib/app/data.sqlite
//	schema_file: schema.yaml
//	log_level: debug
//	log_format: json
package config
