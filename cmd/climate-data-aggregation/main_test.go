package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/i474232898/climate-data-aggregation/internal/config"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	// A regular file where the audit directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &config.AppConfig{
		AppEnv:          "dev",
		Port:            "0",
		AuditSQLitePath: filepath.Join(blocker, "audit.db"),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(context.Background(), cfg, log)
	if err == nil || !strings.Contains(err.Error(), "open audit database") {
		t.Fatalf("expected the audit failure to be returned, got %v", err)
	}
}
