// Package dedup runs the scheduled duplicate-event cleanup. Ticket searches
// ingest the same event from multiple providers under different external ids;
// this job periodically collapses future-dated duplicates down to the earliest
// ingested row per identity tuple. Past events are left alone as history.
package dedup

import (
	"context"
	"log/slog"
	"time"
)

// Store is the persistence surface the job needs. Implemented by storage.DB.
type Store interface {
	DeleteDuplicateEvents(ctx context.Context, asOf time.Time) (int64, error)
}

// Deduplicator owns the cleanup schedule.
type Deduplicator struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
}

// New creates a Deduplicator running every interval (default daily).
func New(store Store, logger *slog.Logger, interval time.Duration) *Deduplicator {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Deduplicator{store: store, logger: logger, interval: interval}
}

// Run performs one cleanup pass.
func (d *Deduplicator) Run(ctx context.Context) (int64, error) {
	return d.store.DeleteDuplicateEvents(ctx, time.Now().UTC())
}

// Start runs cleanup passes on the configured interval until ctx is canceled.
// The first pass runs after one interval, not immediately, so startup is not
// serialized behind a table scan. Pass failures are logged and the schedule
// continues.
func (d *Deduplicator) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("event dedup job started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("event dedup job stopped")
			return
		case <-ticker.C:
			n, err := d.Run(ctx)
			if err != nil {
				d.logger.Error("event dedup pass failed", "error", err)
				continue
			}
			if n > 0 {
				d.logger.Info("duplicate events removed", "count", n)
			}
		}
	}
}
