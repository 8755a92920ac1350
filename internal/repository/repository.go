// Package repository persists users and analyzed resume versions in PostgreSQL.
package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

const uniqueViolation = "23505"

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid database url", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeDatabase, "failed to connect to database", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewStorageError(errors.ErrCodeDatabase, "failed to ping database", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS resume_versions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		content TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		industry VARCHAR(64) NOT NULL,
		analysis JSONB NOT NULL,
		version_name VARCHAR(255) NOT NULL,
		file_path TEXT,
		file_original_name TEXT,
		file_size BIGINT,
		file_mime_type VARCHAR(255),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		CONSTRAINT uq_user_version_name UNIQUE (user_id, version_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resume_versions_user_id ON resume_versions (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_resume_versions_created_at ON resume_versions (created_at)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return errors.NewStorageError(errors.ErrCodeDatabase, "migration failed", err)
			}
		}
		return nil
	})
}

// mapError classifies pgx errors into the application taxonomy.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.NewStorageError(errors.ErrCodeNotFound, what+" not found", nil)
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.NewStorageError(errors.ErrCodeConflict, what+" already exists", err).
			WithContext("constraint", pgErr.ConstraintName)
	}
	return errors.NewStorageError(errors.ErrCodeDatabase, fmt.Sprintf("%s query failed", what), err)
}

// parseID rejects malformed ids as not found, since no row can match them.
func parseID(id, what string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.NewStorageError(errors.ErrCodeNotFound, what+" not found", nil).
			WithContext("id", id)
	}
	return u, nil
}

func now() time.Time {
	return time.Now().UTC()
}
