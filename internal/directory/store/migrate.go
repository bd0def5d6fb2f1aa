// Package store holds the shared schema for the Postgres-backed
// directory stores.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		company_id UUID REFERENCES companies(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS phone_numbers (
		id UUID PRIMARY KEY,
		contact_id UUID NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		raw_number TEXT NOT NULL,
		phone_type TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS phone_numbers_raw_number_idx ON phone_numbers(raw_number)`,
	`CREATE TABLE IF NOT EXISTS skype_contacts (
		id UUID PRIMARY KEY,
		contact_id UUID NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		username TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contact_tags (
		contact_id UUID NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		position INT NOT NULL,
		PRIMARY KEY (contact_id, tag_id)
	)`,
}

// Migrate creates the directory schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate directory schema: %w", err)
		}
	}
	return nil
}
