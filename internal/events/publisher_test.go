package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDegradationEvent(t *testing.T) {
	record := climate.ClimateRecord{
		ID:       "rec-1",
		Location: climate.Location{Lat: -6.2, Lon: 106.8, Name: "Selected Location"},
		Sources: []climate.SourceOutcome{
			{Feed: climate.FeedGeocoding, Provider: "default"},
			{Feed: climate.FeedTemperature, Provider: "nasa-power", Live: true},
			{Feed: climate.FeedCO2, Provider: "synthetic", Error: "world-bank: empty result"},
			{Feed: climate.FeedPollution, Provider: "synthetic", Error: "openweathermap: api key missing"},
		},
		GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	ev := NewDegradationEvent(record)
	if ev.RecordID != "rec-1" || !ev.GeneratedAt.Equal(record.GeneratedAt) {
		t.Fatalf("unexpected header: %+v", ev)
	}
	if len(ev.Synthetic) != 2 {
		t.Fatalf("expected 2 synthetic feeds, got %+v", ev.Synthetic)
	}
	for _, s := range ev.Synthetic {
		if s.Live || s.Feed == climate.FeedGeocoding {
			t.Fatalf("unexpected feed in event: %+v", s)
		}
	}
}

func TestPublishRequiresConnection(t *testing.T) {
	p := NewPublisher(Config{Broker: "127.0.0.1", Port: 1, ClientID: "test", Topic: "climate/degraded"}, quietLogger())
	defer p.Close()

	if err := p.PublishDegraded(context.Background(), climate.ClimateRecord{ID: "x"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnectHonoursContextAndClose(t *testing.T) {
	// Nothing listens on port 1; with connect retry enabled the attempt never
	// completes on its own.
	p := NewPublisher(Config{Broker: "127.0.0.1", Port: 1, ClientID: "test", Topic: "t"}, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := p.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	p.Close()
	p.Close()
	if err := p.Connect(context.Background()); !errors.Is(err, errStopped) {
		t.Fatalf("expected stopped error after Close, got %v", err)
	}
}
