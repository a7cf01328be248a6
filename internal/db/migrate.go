package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jewels/internal/store"
)

// Migrate applies the schema. Every statement is idempotent so startup can
// run it unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id bigserial PRIMARY KEY,
			name text NOT NULL,
			description text NOT NULL DEFAULT '',
			price numeric(12,2) NOT NULL,
			max_price numeric(12,2),
			category text NOT NULL DEFAULT 'Other',
			brand text,
			collection text,
			is_new boolean NOT NULL DEFAULT false,
			is_limited boolean NOT NULL DEFAULT false,
			images jsonb NOT NULL DEFAULT '[]',
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS users (
			id bigserial PRIMARY KEY,
			username text NOT NULL UNIQUE,
			password bytea NOT NULL,
			email text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the admin account when it does not exist yet. An already
// seeded database is left untouched, password changes included.
func SeedAdmin(ctx context.Context, storage store.Storage, username, passwordText string) error {
	if username == "" || passwordText == "" {
		return nil
	}

	_, err := storage.Users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	admin := &store.User{Username: username}
	if err := admin.Password.Set(passwordText); err != nil {
		return err
	}
	return storage.Users.Create(ctx, admin)
}
