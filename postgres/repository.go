package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canleads/places-scraper/queries"
)

// QueryRow is a queued search query stored in postgres.
type QueryRow struct {
	ID         string
	Query      string
	MaxResults int
}

// QueryRepository persists and dequeues search queries.
type QueryRepository struct {
	db *sql.DB
}

func NewQueryRepository(db *sql.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// SaveQueries inserts the enumerated queries, skipping ids already present.
func (r *QueryRepository) SaveQueries(ctx context.Context, items []queries.SearchQuery, maxResults int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	const q = `INSERT INTO search_queries (id, query, max_results)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, q, item.ID, item.Text, maxResults); err != nil {
			return fmt.Errorf("save query %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// SelectPending returns queries that have not been processed yet.
func (r *QueryRepository) SelectPending(ctx context.Context, limit int) ([]QueryRow, error) {
	const q = `SELECT id, query, max_results FROM search_queries
		WHERE status = 'new'
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var items []QueryRow

	for rows.Next() {
		var item QueryRow
		if err := rows.Scan(&item.ID, &item.Query, &item.MaxResults); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// MarkDone flags a query as processed.
func (r *QueryRepository) MarkDone(ctx context.Context, id string) error {
	const q = `UPDATE search_queries SET status = 'done', finished_at = now() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id)

	return err
}
