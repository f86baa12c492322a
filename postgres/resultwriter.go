package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gosom/scrapemate"
	"github.com/shopspring/decimal"

	"github.com/canleads/places-scraper/gplaces"
)

// NewResultWriter returns a writer that persists extracted places.
func NewResultWriter(db *sql.DB) scrapemate.ResultWriter {
	return &resultWriter{db: db}
}

type resultWriter struct {
	db *sql.DB
}

func (r *resultWriter) Run(ctx context.Context, in <-chan scrapemate.Result) error {
	for result := range in {
		entry, ok := result.Data.(*gplaces.Entry)
		if !ok {
			return fmt.Errorf("invalid data type: %T", result.Data)
		}

		if err := r.saveEntry(ctx, entry); err != nil {
			return err
		}
	}

	return nil
}

func (r *resultWriter) saveEntry(ctx context.Context, entry *gplaces.Entry) error {
	const q = `INSERT INTO places (
		place_id, input_id, maps_url, name, website, phone, intl_phone,
		category, sub_types, address, latitude, longitude, rating, review_count
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (place_id) DO NOTHING`

	var rating sql.NullString
	if entry.ReviewRating > 0 {
		rating = sql.NullString{
			String: decimal.NewFromFloat(entry.ReviewRating).StringFixed(1),
			Valid:  true,
		}
	}

	_, err := r.db.ExecContext(ctx, q,
		entry.PlaceID,
		entry.ID,
		entry.Link,
		entry.Title,
		entry.WebSite,
		entry.Phone,
		entry.IntlPhone,
		entry.Category,
		strings.Join(entry.Categories, ", "),
		entry.Address,
		entry.Latitude,
		entry.Longitude,
		rating,
		entry.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("save place %s: %w", entry.PlaceID, err)
	}

	return nil
}
