/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite stores each logical store as a WITHOUT ROWID table with a
// BLOB primary key. SQLite compares BLOBs with memcmp, which matches the byte
// order of encoded keys.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/suparena/entitykv/datastore"
)

const rangeBatch = 256

// DB is an open SQLite database.
type DB struct {
	db *sql.DB
}

// Open creates or opens the database at dsn and applies pragmas.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to execute %q", p)
		}
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

func quoteIdent(name string) string {
	return `"kv_` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Store returns the store backed by a table for name, creating the table.
func (db *DB) Store(ctx context.Context, name string) (*Store, error) {
	table := quoteIdent(name)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (k BLOB PRIMARY KEY, v BLOB NOT NULL) WITHOUT ROWID`, table)
	if _, err := db.db.ExecContext(ctx, ddl); err != nil {
		return nil, errors.Wrapf(err, "create table for store %s", name)
	}
	return &Store{db: db.db, name: name, table: table}, nil
}

// Opener opens tables of db on demand.
func (db *DB) Opener() datastore.Opener {
	return func(ctx context.Context, name string) (datastore.Store, error) {
		return db.Store(ctx, name)
	}
}

// Store is one table.
type Store struct {
	db    *sql.DB
	name  string
	table string
}

var _ datastore.Store = (*Store)(nil)

func (s *Store) Name() string { return s.name }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM `+s.table+` WHERE k = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get")
	}
	return v, true, nil
}

func (s *Store) Range(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	from := start
	inclusive := true
	for {
		var (
			conds []string
			args  []any
		)
		if from != nil {
			if inclusive {
				conds = append(conds, "k >= ?")
			} else {
				conds = append(conds, "k > ?")
			}
			args = append(args, from)
		}
		if end != nil {
			conds = append(conds, "k <= ?")
			args = append(args, end)
		}
		q := `SELECT k, v FROM ` + s.table
		if len(conds) > 0 {
			q += ` WHERE ` + strings.Join(conds, " AND ")
		}
		q += fmt.Sprintf(` ORDER BY k LIMIT %d`, rangeBatch)

		keys, vals, err := s.readBatch(ctx, q, args)
		if err != nil {
			return errors.Wrap(err, "range")
		}
		for i := range keys {
			if !fn(keys[i], vals[i]) {
				return nil
			}
		}
		if len(keys) < rangeBatch {
			return nil
		}
		from, inclusive = keys[len(keys)-1], false
	}
}

// readBatch drains rows before callbacks run; the pool has one connection.
func (s *Store) readBatch(ctx context.Context, q string, args []any) (keys, vals [][]byte, err error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return keys, vals, rows.Err()
}

func (s *Store) Insert(ctx context.Context, key, value []byte) (prev []byte, existed bool, err error) {
	if value == nil {
		value = []byte{}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "insert")
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `SELECT v FROM `+s.table+` WHERE k = ?`, key).Scan(&prev)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, false, errors.Wrap(err, "insert")
	default:
		existed = true
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO `+s.table+` (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	if err != nil {
		return nil, false, errors.Wrap(err, "insert")
	}
	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "insert")
	}
	return prev, existed, nil
}

func (s *Store) Remove(ctx context.Context, key []byte) (prev []byte, existed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "remove")
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `SELECT v FROM `+s.table+` WHERE k = ?`, key).Scan(&prev)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "remove")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE k = ?`, key); err != nil {
		return nil, false, errors.Wrap(err, "remove")
	}
	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "remove")
	}
	return prev, true, nil
}

func (s *Store) edge(ctx context.Context, order string) ([]byte, bool, error) {
	var k []byte
	err := s.db.QueryRowContext(ctx, `SELECT k FROM `+s.table+` ORDER BY k `+order+` LIMIT 1`).Scan(&k)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "edge key")
	}
	return k, true, nil
}

func (s *Store) First(ctx context.Context) ([]byte, bool, error) { return s.edge(ctx, "ASC") }

func (s *Store) Last(ctx context.Context) ([]byte, bool, error) { return s.edge(ctx, "DESC") }

func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.table).Scan(&n)
	return n, errors.Wrap(err, "len")
}

func (s *Store) Bytes(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(length(k) + length(v)), 0) FROM `+s.table).Scan(&n)
	return n, errors.Wrap(err, "bytes")
}

// Close is a no-op; the database is closed by DB.Close.
func (s *Store) Close() error { return nil }
