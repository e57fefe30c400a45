package audit

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func newTestRepository(t *testing.T, now time.Time) *Repository {
	t.Helper()
	repo := NewRepository(setupTestDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	repo.now = func() time.Time { return now }
	return repo
}

func TestRecordAndRecent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newTestRepository(t, now)
	ctx := context.Background()

	loc := climate.Location{Lat: -6.2, Lon: 106.8, Name: "Jakarta, Indonesia", CountryCode: "IDN"}
	outcomes := []climate.SourceOutcome{
		{Feed: climate.FeedGeocoding, Provider: "nominatim", Live: true},
		{Feed: climate.FeedTemperature, Provider: "synthetic", Live: false, Error: "nasa-power: unexpected status"},
		{Feed: climate.FeedCO2, Provider: "world-bank", Live: true},
	}
	if err := repo.RecordOutcomes(ctx, "rec-1", loc, outcomes); err != nil {
		t.Fatalf("RecordOutcomes: %v", err)
	}

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent: got %d entries, want 3", len(entries))
	}
	// Newest first, so insertion order is reversed.
	if entries[0].Feed != climate.FeedCO2 || entries[2].Feed != climate.FeedGeocoding {
		t.Fatalf("unexpected order: %+v", entries)
	}
	temp := entries[1]
	if temp.Live || temp.Provider != "synthetic" || temp.Error == "" {
		t.Fatalf("unexpected temperature outcome: %+v", temp)
	}
	if temp.RecordID != "rec-1" || temp.Location != loc.Name || !temp.Timestamp.Equal(now) {
		t.Fatalf("unexpected entry metadata: %+v", temp)
	}

	limited, err := repo.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("Recent with limit: got %d entries", len(limited))
	}
}

func TestRecentEmpty(t *testing.T) {
	repo := newTestRepository(t, time.Now())
	entries, err := repo.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestDegradedSince(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newTestRepository(t, now)
	ctx := context.Background()
	loc := climate.Location{Name: "World"}

	live := []climate.SourceOutcome{{Feed: climate.FeedTemperature, Provider: "nasa-gistemp", Live: true}}
	geoOnly := []climate.SourceOutcome{{Feed: climate.FeedGeocoding, Provider: "default", Live: false}}
	degraded := []climate.SourceOutcome{
		{Feed: climate.FeedTemperature, Provider: "synthetic"},
		{Feed: climate.FeedCO2, Provider: "synthetic"},
	}
	for id, o := range map[string][]climate.SourceOutcome{"a": live, "b": geoOnly, "c": degraded} {
		if err := repo.RecordOutcomes(ctx, id, loc, o); err != nil {
			t.Fatalf("RecordOutcomes %s: %v", id, err)
		}
	}

	n, err := repo.DegradedSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("DegradedSince: %v", err)
	}
	if n != 1 {
		t.Fatalf("DegradedSince: got %d, want 1", n)
	}
	if n, _ := repo.DegradedSince(ctx, now.Add(time.Hour)); n != 0 {
		t.Fatalf("DegradedSince in the future: got %d, want 0", n)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	repo := NewRepository(db, nil)
	if err := repo.RecordOutcomes(context.Background(), "rec", climate.Location{}, nil); err != nil {
		t.Fatalf("empty RecordOutcomes: %v", err)
	}
}

func TestDegradedSinceWithinOneSecond(t *testing.T) {
	whole := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)
	repo := newTestRepository(t, whole)
	ctx := context.Background()
	degraded := []climate.SourceOutcome{{Feed: climate.FeedCO2, Provider: "synthetic"}}

	if err := repo.RecordOutcomes(ctx, "on-the-second", climate.Location{}, degraded); err != nil {
		t.Fatalf("RecordOutcomes: %v", err)
	}
	repo.now = func() time.Time { return half }
	if err := repo.RecordOutcomes(ctx, "half-past", climate.Location{}, degraded); err != nil {
		t.Fatalf("RecordOutcomes: %v", err)
	}

	n, err := repo.DegradedSince(ctx, half)
	if err != nil {
		t.Fatalf("DegradedSince: %v", err)
	}
	if n != 1 {
		t.Fatalf("DegradedSince(%s): got %d, want 1", half.Format(time.RFC3339Nano), n)
	}
	if n, _ := repo.DegradedSince(ctx, whole.Add(time.Millisecond)); n != 1 {
		t.Fatalf("DegradedSince just after the second: got %d, want 1", n)
	}
	if n, _ := repo.DegradedSince(ctx, whole); n != 2 {
		t.Fatalf("DegradedSince(%s): got %d, want 2", whole.Format(time.RFC3339Nano), n)
	}

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 || !entries[0].Timestamp.Equal(half) || !entries[1].Timestamp.Equal(whole) {
		t.Fatalf("expected both timestamps to round-trip, got %+v", entries)
	}
}
