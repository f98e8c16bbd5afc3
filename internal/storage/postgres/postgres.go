// Package postgres stores snapshots in the storefront_kv table.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lifestyle/storefront/pkg/database"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	selectValueSQL = `SELECT value FROM storefront_kv
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`

	upsertValueSQL = `INSERT INTO storefront_kv (key, value, updated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`

	deleteValueSQL = `DELETE FROM storefront_kv WHERE key = $1`

	purgeExpiredSQL = `DELETE FROM storefront_kv WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

// Pinger is the subset of *pgxpool.Pool used for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store implements storage.Storage on PostgreSQL. Expiry is evaluated on read
// and expired rows are removed by PurgeExpired.
type Store struct {
	db  database.DBTX
	ttl time.Duration
	now func() time.Time
}

// New creates a Postgres-backed store. A zero ttl stores rows without expiry.
func New(db database.DBTX, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Migrations returns the embedded schema for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres: embedded migrations: %v", err))
	}
	return sub
}

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	return database.RunMigrations(ctx, db, Migrations(), logger)
}

func (s *Store) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetValue", selectValueSQL)
	defer func() { end(err) }()

	var value string
	err = s.db.QueryRow(ctx, selectValueSQL, key, s.now().UTC()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("storage key", key)
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SetValue", upsertValueSQL)
	defer func() { end(err) }()

	now := s.now().UTC()
	var expiresAt *time.Time
	if s.ttl > 0 {
		t := now.Add(s.ttl)
		expiresAt = &t
	}

	if _, err = s.db.Exec(ctx, upsertValueSQL, key, string(value), now, expiresAt); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteValue", deleteValueSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, deleteValueSQL, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity when the underlying DBTX supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(Pinger); ok {
		return p.Ping(ctx)
	}
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// PurgeExpired deletes rows whose expiry is at or before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (n int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "PurgeExpired", purgeExpiredSQL)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, purgeExpiredSQL, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
