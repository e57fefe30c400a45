package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/insert-outcome.sql
var insertOutcomeSQL string

//go:embed sql/get-recent.sql
var getRecentSQL string

//go:embed sql/get-degraded-count.sql
var getDegradedCountSQL string

// timestampLayout is fixed width so that ts compares and sorts as text.
// RFC3339Nano drops trailing zeros and would sort "12:00:00Z" after
// "12:00:00.5Z".
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one stored feed outcome.
type Entry struct {
	RecordID  string    `json:"recordId"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Location  string    `json:"location"`
	climate.SourceOutcome
}

// Repository stores feed outcomes. It implements climate.OutcomeRecorder.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewRepository(db *sql.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger, now: time.Now}
}

// RecordOutcomes writes all outcomes of one record in a single transaction.
func (r *Repository) RecordOutcomes(ctx context.Context, recordID string, loc climate.Location, outcomes []climate.SourceOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertOutcomeSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("close insert statement", "error", err)
		}
	}()

	ts := r.now().UTC().Format(timestampLayout)
	for _, o := range outcomes {
		var errText sql.NullString
		if o.Error != "" {
			errText = sql.NullString{String: o.Error, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, recordID, ts, loc.Lat, loc.Lon, loc.Name,
			string(o.Feed), o.Provider, o.Live, errText); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Feed, err)
		}
	}
	return tx.Commit()
}

// Recent returns the newest outcomes first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, getRecentSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("close recent outcomes rows", "error", err)
		}
	}()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			ts      string
			feed    string
			errText sql.NullString
		)
		if err := rows.Scan(&e.RecordID, &ts, &e.Lat, &e.Lon, &e.Location, &feed, &e.Provider, &e.Live, &errText); err != nil {
			return nil, err
		}
		t, err := time.Parse(timestampLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		e.Timestamp = t
		e.Feed = climate.Feed(feed)
		e.Error = errText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// DegradedSince counts records with at least one synthetic data feed since t.
func (r *Repository) DegradedSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, getDegradedCountSQL, t.UTC().Format(timestampLayout)).Scan(&n)
	return n, err
}
