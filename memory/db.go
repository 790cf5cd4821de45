// Copyright 2025 The NLP Odyssey Authors
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

package memory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the database handle a SQLStore runs its statements on. It hides the
// differences between database/sql and pgx.
type DB interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row

	// Tx runs fn in a transaction, committed when fn returns nil.
	Tx(ctx context.Context, fn func(DB) error) error

	Close() error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Row.Scan reports a missing row with errNoRows.
type Row interface {
	Scan(dest ...any) error
}

var errNoRows = errors.New("no rows in result set")

// sqlConn is implemented by both *sql.DB and *sql.Tx.
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlDB struct {
	conn sqlConn
	db   *sql.DB // nil inside a transaction
}

func openSQLiteDB(ctx context.Context, path string) (*sqlDB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// The agents of a run write concurrently; one connection serializes them.
	db.SetMaxOpenConns(1)
	if _, err = db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &sqlDB{conn: db, db: db}, nil
}

func (d *sqlDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := d.conn.ExecContext(ctx, query, args...)
	return err
}

func (d *sqlDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return d.conn.QueryContext(ctx, query, args...)
}

func (d *sqlDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{d.conn.QueryRowContext(ctx, query, args...)}
}

func (d *sqlDB) Tx(ctx context.Context, fn func(DB) error) (err error) {
	if d.db == nil {
		return fn(d)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(&sqlDB{conn: tx}); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

func (d *sqlDB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

type sqlRow struct{ row *sql.Row }

func (r sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return errNoRows
	}
	return err
}

// pgConn is implemented by both *pgxpool.Pool and pgx.Tx.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgDB struct {
	conn pgConn
	pool *pgxpool.Pool // nil inside a transaction
}

func openPostgresDB(ctx context.Context, dsn string) (*pgDB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: pool, pool: pool}, nil
}

func (d *pgDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := d.conn.Exec(ctx, query, args...)
	return err
}

func (d *pgDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgRows{rows}, nil
}

func (d *pgDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return pgRow{d.conn.QueryRow(ctx, query, args...)}
}

func (d *pgDB) Tx(ctx context.Context, fn func(DB) error) error {
	if d.pool == nil {
		return fn(d)
	}
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		return fn(&pgDB{conn: tx})
	})
}

func (d *pgDB) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

type pgRows struct{ rows pgx.Rows }

func (r pgRows) Next() bool             { return r.rows.Next() }
func (r pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r pgRows) Err() error             { return r.rows.Err() }
func (r pgRows) Close() error           { r.rows.Close(); return nil }

type pgRow struct{ row pgx.Row }

func (r pgRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return errNoRows
	}
	return err
}
