// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite provides a durable, single-host cache backend for
// deployments that need pointers and lock markers to survive a process
// restart without standing up a separate key-value service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tombee/grove/internal/backend/cache"
	"github.com/tombee/grove/internal/handler"
	_ "modernc.org/sqlite"
)

var _ cache.Backend = (*Backend)(nil)

func init() {
	handler.RegisterCache("sqlite", func() (cache.Backend, error) {
		path := os.Getenv("GROVE_CACHE_SQLITE_PATH")
		if path == "" {
			path = "./grove.db"
		}
		return New(Config{Path: path, WAL: true})
	})
}

// Backend is a SQLite-backed cache backend. SQLite serializes writes, so the
// pool is capped at a single open connection — fine for Grove's access
// pattern, which is already serialized per instance by the scheduler's lock.
type Backend struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// New opens (and migrates) a SQLite cache backend.
func New(cfg Config) (*Backend, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}
	if err := b.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return b, nil
}

func (b *Backend) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := b.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func (b *Backend) migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS cache_entries (
		pk TEXT NOT NULL,
		sk TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (pk, sk)
	)`)
	return err
}

// Get implements cache.Backend.
func (b *Backend) Get(ctx context.Context, pk, sk string) (string, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE pk = ? AND sk = ?`, pk, sk).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", pk, sk, err)
	}
	return value, nil
}

// Set implements cache.Backend, enforcing constraint inside a transaction so
// the read-check-write sequence is atomic against concurrent writers in this
// process (and, thanks to SQLite's single-writer model, across processes
// sharing the same database file).
func (b *Backend) Set(ctx context.Context, pk, sk, value string, constraint cache.Constraint) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE pk = ? AND sk = ?`, pk, sk).Scan(&current)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
		err = nil
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", pk, sk, err)
	}

	switch {
	case constraint == cache.NoConstraint:
	case constraint.Absent:
		if exists {
			return cache.ErrConflict
		}
	default:
		if !exists || current != constraint.Expect {
			return cache.ErrConflict
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO cache_entries (pk, sk, value) VALUES (?, ?, ?)
		ON CONFLICT (pk, sk) DO UPDATE SET value = excluded.value`, pk, sk, value)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", pk, sk, err)
	}

	return tx.Commit()
}

// Delete implements cache.Backend.
func (b *Backend) Delete(ctx context.Context, pk, sk string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE pk = ? AND sk = ?`, pk, sk)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", pk, sk, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}
