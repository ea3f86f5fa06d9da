package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tripweaver/tripweaver/internal/model"
)

// InsertEvents upserts event rows ingested from a ticketing source.
// Rows already present (same source_provider + external_id) are skipped, so
// re-running a search never duplicates rows from the same source. Duplicates
// across different sources are expected and handled by the dedup job.
// Returns the number of rows actually inserted.
func (db *DB) InsertEvents(ctx context.Context, events []model.EventRecord) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	var inserted int64
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(
			`INSERT INTO events (external_id, name, artist, venue_name, venue_city, venue_state, event_date, source_provider)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (source_provider, external_id) DO NOTHING`,
			e.ExternalID, e.Name, e.Artist, e.VenueName, e.VenueCity, e.VenueState, e.EventDate, e.SourceProvider,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("storage: insert events: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// DeleteDuplicateEvents collapses future-dated rows sharing the identity tuple
// (name, artist, venue_name, venue_city, event_date) down to the lowest-id row
// of each group. Returns the number of rows deleted. Running it again with no
// new ingestion deletes nothing.
func (db *DB) DeleteDuplicateEvents(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := db.pool.Exec(ctx, `
		DELETE FROM events WHERE id IN (
			SELECT id FROM (
				SELECT id,
				       ROW_NUMBER() OVER (
				           PARTITION BY name, artist, venue_name, venue_city, event_date
				           ORDER BY id ASC
				       ) AS rn
				FROM events
				WHERE event_date >= $1
			) ranked
			WHERE ranked.rn > 1
		)`, asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: delete duplicate events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListEvents returns events ordered by id. Used by tests and admin tooling.
func (db *DB) ListEvents(ctx context.Context, limit int) ([]model.EventRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, external_id, name, artist, venue_name, venue_city, venue_state, event_date, source_provider, created_at
		 FROM events ORDER BY id ASC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountEvents returns the total number of event rows.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count events: %w", err)
	}
	return n, nil
}

func scanEvents(rows pgx.Rows) ([]model.EventRecord, error) {
	var events []model.EventRecord
	for rows.Next() {
		var e model.EventRecord
		if err := rows.Scan(
			&e.ID, &e.ExternalID, &e.Name, &e.Artist, &e.VenueName,
			&e.VenueCity, &e.VenueState, &e.EventDate, &e.SourceProvider, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
