package dedup_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/dedup"
	"github.com/tripweaver/tripweaver/internal/storage"
	"github.com/tripweaver/tripweaver/internal/testutil"
)

var testDB *storage.DB

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	var err error
	testDB, err = tc.NewTestDB(context.Background(), testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "dedup_test: %v\n", err)
		os.Exit(1)
	}
	defer testDB.Close()

	os.Exit(m.Run())
}

// insertRaw inserts an event row with an explicit id, bypassing InsertEvents
// so tests control which row of a duplicate group is oldest.
func insertRaw(t *testing.T, id int64, externalID, name, source string, eventDate time.Time) {
	t.Helper()
	_, err := testDB.Pool().Exec(context.Background(),
		`INSERT INTO events (id, external_id, name, artist, venue_name, venue_city, venue_state, event_date, source_provider)
		 VALUES ($1, $2, $3, 'The Goroutines', 'Red Rocks', 'Morrison', 'CO', $4, $5)`,
		id, externalID, name, eventDate, source,
	)
	require.NoError(t, err)
}

func truncateEvents(t *testing.T) {
	t.Helper()
	_, err := testDB.Pool().Exec(context.Background(), `TRUNCATE events`)
	require.NoError(t, err)
}

func TestRunKeepsLowestIDPerGroup(t *testing.T) {
	truncateEvents(t)
	ctx := context.Background()
	future := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)

	// Three rows from different sources describing the same event.
	insertRaw(t, 5, "tm-1", "Static Resonance", "ticketmaster", future)
	insertRaw(t, 2, "sg-1", "Static Resonance", "seatgeek", future)
	insertRaw(t, 9, "sh-1", "Static Resonance", "stubhub", future)
	// A different event on the same date survives untouched.
	insertRaw(t, 11, "tm-2", "Other Show", "ticketmaster", future)

	d := dedup.New(testDB, testutil.TestLogger(), time.Hour)

	deleted, err := d.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	events, err := testDB.ListEvents(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, "seatgeek", events[0].SourceProvider)
	assert.Equal(t, int64(11), events[1].ID)

	// A second pass with no new ingestion is a no-op.
	deleted, err = d.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRunIgnoresPastEvents(t *testing.T) {
	truncateEvents(t)
	ctx := context.Background()
	past := time.Now().UTC().AddDate(0, -1, 0).Truncate(24 * time.Hour)

	insertRaw(t, 1, "tm-1", "Archived Show", "ticketmaster", past)
	insertRaw(t, 2, "sg-1", "Archived Show", "seatgeek", past)

	d := dedup.New(testDB, testutil.TestLogger(), time.Hour)

	deleted, err := d.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	count, err := testDB.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	d := dedup.New(testDB, testutil.TestLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dedup loop did not stop after cancel")
	}
}
