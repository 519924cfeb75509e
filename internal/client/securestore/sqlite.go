package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ccelrecreo/recreo/internal/client/migrations"
	"github.com/ccelrecreo/recreo/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps values in the secure_store table.
type SQLiteStore struct {
	db   dbx.DBTX
	conn *sql.DB
}

// NewSQLiteStore binds a store to an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, conn: db}
}

// OpenSQLite opens the database at dsn and applies the embedded migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	// a single connection keeps ":memory:" databases coherent and
	// serialises writers on the file
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return NewSQLiteStore(db), nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (r *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM secure_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get secure_store[%s]: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO secure_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set secure_store[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM secure_store WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete secure_store[%s]: %w", key, err)
	}
	return nil
}

// Batch runs fn inside one SQLite transaction.
func (r *SQLiteStore) Batch(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if r.conn == nil {
		return ErrBatchUnsupported
	}
	return dbx.WithTx(ctx, r.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteStore{db: tx})
	})
}

// Close closes the underlying database.
func (r *SQLiteStore) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
