package earthengine

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeServiceAccount writes a service-account key whose token endpoint is
// tokenURL and returns its path.
func writeServiceAccount(t *testing.T, tokenURL string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	account := map[string]string{
		"type":           "service_account",
		"project_id":     "globe-test",
		"private_key_id": "key-1",
		"private_key":    string(pemKey),
		"client_email":   "globe@globe-test.iam.gserviceaccount.com",
		"client_id":      "1",
		"token_uri":      tokenURL,
	}
	data, err := json.Marshal(account)
	if err != nil {
		t.Fatalf("marshal account: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionLifecycle(t *testing.T) {
	tokens := tokenServer(t)
	keyPath := writeServiceAccount(t, tokens.URL)

	s := NewSession(Config{KeyPath: keyPath}, tokens.Client(), quietLogger())
	if s.Ready() {
		t.Fatalf("new session should not be ready")
	}
	if _, err := s.SampleNDVI(context.Background(), DefaultGlobalSample); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !s.Ready() {
		t.Fatalf("expected session to be ready after Init")
	}
	if _, project, _ := s.authorized(); project != "globe-test" {
		t.Fatalf("expected project from key file, got %q", project)
	}
	// Second Init is a no-op.
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("second init: %v", err)
	}

	s.Close()
	if s.Ready() {
		t.Fatalf("expected session to be torn down after Close")
	}
}

func TestSessionInitErrors(t *testing.T) {
	s := NewSession(Config{}, nil, quietLogger())
	if err := s.Init(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	s = NewSession(Config{KeyPath: filepath.Join(t.TempDir(), "missing.json")}, nil, quietLogger())
	if err := s.Init(context.Background()); err == nil {
		t.Fatalf("expected error for missing key file")
	}

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
	}))
	defer rejecting.Close()

	s = NewSession(Config{KeyPath: writeServiceAccount(t, rejecting.URL)}, rejecting.Client(), quietLogger())
	if err := s.Init(context.Background()); err == nil {
		t.Fatalf("expected authentication error")
	}
	if s.Ready() {
		t.Fatalf("failed init must leave session unready")
	}
}

func TestSampleNDVI(t *testing.T) {
	tokens := tokenServer(t)

	var gotPath, gotAuth string
	var gotBody map[string]any
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":{"type":"FeatureCollection","features":[
			{"geometry":{"type":"Point","coordinates":[106.8,-6.2]},"properties":{"NDVI":0.61,"SR_B4":9000,"SR_B3":12000,"SR_B2":15000}},
			{"geometry":{"type":"Point","coordinates":[2.35,48.85]},"properties":{"NDVI":0.2}},
			{"geometry":{"type":"Point","coordinates":[]},"properties":{"NDVI":0.9}}
		]}}`)
	}))
	defer api.Close()

	s := NewSession(Config{KeyPath: writeServiceAccount(t, tokens.URL), Project: "override", BaseURL: api.URL}, tokens.Client(), quietLogger())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	points, err := s.SampleNDVI(context.Background(), DefaultGlobalSample)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if gotPath != "/projects/override/value:compute" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	expr, ok := gotBody["expression"].(map[string]any)
	if !ok || expr["result"] != "0" {
		t.Fatalf("unexpected expression body: %v", gotBody)
	}
	raw, _ := json.Marshal(expr)
	for _, want := range []string{"LANDSAT/LC09/C02/T1_L2", "Image.normalizedDifference", "Image.sample", "CLOUD_COVER"} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("expression missing %q", want)
		}
	}

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	p := points[0]
	if p.Lat != -6.2 || p.Lon != 106.8 || p.NDVI != 0.61 {
		t.Fatalf("unexpected point %+v", p)
	}
	if p.R != 0.3 || p.G != 0.4 || p.B != 0.5 {
		t.Fatalf("unexpected channels %+v", p)
	}
}

func TestSampleNDVIEmptyAndErrors(t *testing.T) {
	tokens := tokenServer(t)

	status := http.StatusOK
	body := `{"result":{"features":[]}}`
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	defer api.Close()

	s := NewSession(Config{KeyPath: writeServiceAccount(t, tokens.URL), BaseURL: api.URL}, tokens.Client(), quietLogger())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := s.SampleNDVI(context.Background(), DefaultGlobalSample); !errors.Is(err, ErrNoFeatures) {
		t.Fatalf("expected ErrNoFeatures, got %v", err)
	}

	status = http.StatusBadRequest
	body = `{"error":{"code":400,"message":"Collection.filter: bad filter"}}`
	_, err := s.SampleNDVI(context.Background(), DefaultGlobalSample)
	if err == nil || !strings.Contains(err.Error(), "bad filter") {
		t.Fatalf("expected upstream message in error, got %v", err)
	}
}
