package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/yko79135/lessonplangenerator/internal/chat"
	"github.com/yko79135/lessonplangenerator/internal/platform/config"
	"github.com/yko79135/lessonplangenerator/internal/store"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Backend: backend, DataDir: t.TempDir()},
		Log:     config.LogConfig{Level: "info", Format: "json"},
	}
}

func TestHealthEndpoints(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t, config.StorageMemory))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   "{\"status\":\"ok\"}\n",
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   "{\"status\":\"ready\"}\n",
		},
		{
			name:       "oauth disabled without client",
			path:       "/oauth/start",
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			a.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}

	if a.gateway != nil {
		t.Error("gateway should be nil without a telegram token")
	}
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		backend string
		check   func(store.Store) bool
	}{
		{config.StorageMemory, func(s store.Store) bool { _, ok := s.(*store.MemoryStore); return ok }},
		{config.StorageFile, func(s store.Store) bool { _, ok := s.(*store.FileStore); return ok }},
		{config.StorageSQLite, func(s store.Store) bool { _, ok := s.(*store.SQLiteStore); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			st, err := openStore(context.Background(), testConfig(t, tt.backend), nil)
			if err != nil {
				t.Fatalf("openStore() error = %v", err)
			}
			if !tt.check(st) {
				t.Errorf("openStore(%q) = %T", tt.backend, st)
			}
			if c, ok := st.(interface{ Close() error }); ok {
				c.Close()
			}
		})
	}

	if _, err := openStore(context.Background(), testConfig(t, config.StoragePostgres), nil); err == nil {
		t.Error("postgres without a database should fail")
	}
}

func TestNewApp_OAuthClientFromFile(t *testing.T) {
	cfg := testConfig(t, config.StorageMemory)
	path := filepath.Join(t.TempDir(), "client.json")
	os.WriteFile(path, []byte(`{"web":{"client_id":"cid","client_secret":"sec",
"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`), 0o600)
	cfg.Google.OAuthClientJSON = path

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/start", nil))
	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusFound)
	}

	cfg.Google.OAuthClientJSON = filepath.Join(t.TempDir(), "missing.json")
	if _, err := newApp(context.Background(), cfg); err == nil {
		t.Error("missing client file should fail startup")
	}
}

func TestHandleChat(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t, config.StorageMemory))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	mock := &chat.MockChannel{}
	a.gateway = chat.NewGateway()
	a.gateway.Register("telegram", mock)

	a.handleChat(context.Background())(chat.InboundMessage{Channel: "telegram", UserID: "1", Text: "/list"})

	if len(mock.SentMessages) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(mock.SentMessages))
	}
	if mock.SentMessages[0].UserID != "1" {
		t.Errorf("reply UserID = %q, want 1", mock.SentMessages[0].UserID)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		cfg       config.LogConfig
		wantDebug bool
	}{
		{config.LogConfig{Level: "debug", Format: "text"}, true},
		{config.LogConfig{Level: "info", Format: "json"}, false},
		{config.LogConfig{Level: "bogus", Format: "json"}, false},
	}
	for _, tt := range tests {
		l := newLogger(tt.cfg, os.Stderr)
		if got := l.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
			t.Errorf("newLogger(%+v) debug enabled = %v, want %v", tt.cfg, got, tt.wantDebug)
		}
	}
}
