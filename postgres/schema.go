package postgres

import (
	"context"
	"database/sql"
)

// CreateSchema bootstraps the two tables the database run mode uses:
// queued search queries and extracted places.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	const queriesTable = `CREATE TABLE IF NOT EXISTS search_queries (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		max_results INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished_at TIMESTAMPTZ
	)`

	const placesTable = `CREATE TABLE IF NOT EXISTS places (
		place_id TEXT PRIMARY KEY,
		input_id TEXT NOT NULL DEFAULT '',
		maps_url TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		website TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		intl_phone TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		sub_types TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating NUMERIC(2,1),
		review_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	for _, q := range []string{queriesTable, placesTable} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	return nil
}
