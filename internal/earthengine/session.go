// Package earthengine is a thin REST binding to Google Earth Engine plus the
// NDVI grid scaffold served to the globe.
package earthengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultBaseURL = "https://earthengine.googleapis.com/v1"
	scopeEarth     = "https://www.googleapis.com/auth/earthengine"
	scopeCloud     = "https://www.googleapis.com/auth/cloud-platform"
)

var (
	// ErrNotInitialized is returned by calls made before a successful Init.
	ErrNotInitialized = errors.New("earth engine session not initialized")
	// ErrNoCredentials is returned when no private key path is configured.
	ErrNoCredentials = errors.New("earth engine private key path not configured")
	// ErrNoFeatures is returned when a sample request yields nothing.
	ErrNoFeatures = errors.New("no features returned by earth engine")
)

// Config configures a Session.
type Config struct {
	// KeyPath is the service-account JSON file, relative to the working
	// directory unless absolute.
	KeyPath string
	// Project overrides the project_id of the key file.
	Project string
	// BaseURL overrides the REST endpoint.
	BaseURL string
}

// Session holds process-wide Earth Engine credentials. Init authenticates at
// most once successfully; a failed Init can be retried. Close discards the
// credentials so a later Init starts over.
type Session struct {
	cfg    Config
	base   *http.Client
	logger *slog.Logger

	mu      sync.RWMutex
	client  *http.Client
	project string
}

// NewSession creates an uninitialized session. base carries timeouts and is
// used both for token exchange and API calls.
func NewSession(cfg Config, base *http.Client, logger *slog.Logger) *Session {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if base == nil {
		base = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{cfg: cfg, base: base, logger: logger}
}

// Ready reports whether Init has succeeded.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}

// Init reads the service-account key and verifies a token can be minted.
func (s *Session) Init(ctx context.Context) error {
	if s.Ready() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}

	if s.cfg.KeyPath == "" {
		return ErrNoCredentials
	}
	path := s.cfg.KeyPath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve key path: %w", err)
		}
		path = filepath.Join(wd, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("failed to read earth engine private key", "path", path, "error", err)
		return fmt.Errorf("read private key: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, scopeEarth, scopeCloud)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	project := s.cfg.Project
	if project == "" {
		var key struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal(data, &key); err != nil || key.ProjectID == "" {
			return fmt.Errorf("private key has no project_id and GEE_PROJECT is unset")
		}
		project = key.ProjectID
	}

	// Token refreshes outlive any single request, so they are not bound to ctx.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, s.base)
	ts := oauth2.ReuseTokenSource(nil, jwtCfg.TokenSource(tokenCtx))

	tokenErr := make(chan error, 1)
	go func() {
		_, err := ts.Token()
		tokenErr <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-tokenErr:
		if err != nil {
			s.logger.Error("earth engine authentication failed", "error", err)
			return fmt.Errorf("authenticate: %w", err)
		}
	}

	s.client = &http.Client{
		Timeout: s.base.Timeout,
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   s.base.Transport,
		},
	}
	s.project = project
	s.logger.Info("earth engine initialized", "project", project)
	return nil
}

// Close discards credentials.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.project = ""
}

func (s *Session) authorized() (*http.Client, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, "", ErrNotInitialized
	}
	return s.client, s.project, nil
}
