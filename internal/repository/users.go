package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"resumescore/internal/types"
)

// CreateUser inserts a user. A duplicate email is a CONFLICT error.
func (db *DB) CreateUser(ctx context.Context, email string) (*types.User, error) {
	u := types.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now(),
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`,
		u.ID, u.Email, u.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &u, nil
}

func (db *DB) GetUser(ctx context.Context, id string) (*types.User, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	var u types.User
	err = db.pool.QueryRow(ctx,
		`SELECT id::text, email, created_at FROM users WHERE id = $1`, uid,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var u types.User
	err := db.pool.QueryRow(ctx,
		`SELECT id::text, email, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &u, nil
}

// DeleteUser removes a user and their versions. Used by tests for cleanup.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	uid, err := parseID(id, "user")
	if err != nil {
		return err
	}
	if _, err := db.pool.Exec(ctx, `DELETE FROM resume_versions WHERE user_id = $1`, uid); err != nil {
		return mapError(err, "resume version")
	}
	if _, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, uid); err != nil {
		return mapError(err, "user")
	}
	return nil
}
