package providers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastUpstream returns an upstream with millisecond backoff for tests.
func fastUpstream(name string, client *http.Client) *upstream {
	up := newUpstream(name, client, quietLogger())
	up.backoff.InitialInterval = time.Millisecond
	up.backoff.MaxInterval = 5 * time.Millisecond
	return up
}

func TestResilienceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	up := fastUpstream("test", srv.Client())
	var out struct {
		OK bool `json:"ok"`
	}
	if err := up.getJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK || calls.Load() != 3 {
		t.Fatalf("expected success on third attempt, got ok=%v calls=%d", out.OK, calls.Load())
	}
}

func TestResilienceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	up := fastUpstream("test", srv.Client())
	_, err := up.getBody(context.Background(), srv.URL)
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected errUnexpected, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestResilienceGivesUpOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	up := fastUpstream("test", srv.Client())
	_, err := up.getBody(context.Background(), srv.URL)
	if !errors.Is(err, errRateLimited) {
		t.Fatalf("expected errRateLimited, got %v", err)
	}
	if want := int32(DefaultBackoff.MaxRetries + 1); calls.Load() != want {
		t.Fatalf("expected %d attempts, got %d", want, calls.Load())
	}
}

func TestResilienceMalformedJSONAndConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	up := fastUpstream("test", srv.Client())
	var out map[string]any
	if err := up.getJSON(context.Background(), srv.URL, &out); !errors.Is(err, errMalformedReply) {
		t.Fatalf("expected errMalformedReply, got %v", err)
	}

	up = fastUpstream("test", nil)
	if _, err := up.getBody(context.Background(), srv.URL); !errors.Is(err, errNoHTTPClient) {
		t.Fatalf("expected errNoHTTPClient, got %v", err)
	}
}

func TestResilienceHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	up := fastUpstream("test", srv.Client())
	if _, err := up.getBody(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
