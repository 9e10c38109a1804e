package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv unsets all LESSON_ and Google fallback variables for a clean test.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"LESSON_SERVER_PORT",
		"LESSON_SERVER_HOST",
		"LESSON_APP_BASE_URL",
		"LESSON_STORAGE_BACKEND",
		"LESSON_DATA_DIR",
		"LESSON_DATABASE_URL",
		"LESSON_DATABASE_MAX_CONNS",
		"LESSON_DATABASE_MIN_CONNS",
		"LESSON_CACHE_URL",
		"LESSON_CACHE_TTL",
		"LESSON_GOOGLE_OAUTH_CLIENT_JSON",
		"LESSON_GOOGLE_OAUTH_USER_JSON",
		"LESSON_GOOGLE_SERVICE_ACCOUNT_JSON",
		"LESSON_GOOGLE_FOLDER_ID",
		"GOOGLE_OAUTH_CLIENT_JSON",
		"GOOGLE_OAUTH_USER_JSON",
		"GOOGLE_SERVICE_ACCOUNT_JSON",
		"LESSON_TELEGRAM_BOT_TOKEN",
		"LESSON_RENDER_FONT_PATH",
		"LESSON_LOG_LEVEL",
		"LESSON_LOG_FORMAT",
		"LESSON_CURRICULUM_PATH",
		"LESSON_CURRICULUM_WATCH",
		"LESSON_TEACHER_NAME",
	}
	for _, v := range envVars {
		_ = os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageFile)
	}
	if cfg.Storage.DataDir != "./data" {
		t.Errorf("Storage.DataDir = %q, want ./data", cfg.Storage.DataDir)
	}
	if cfg.Cache.URL != "" {
		t.Errorf("Cache.URL = %q, want empty", cfg.Cache.URL)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.TeacherName != "" {
		t.Errorf("TeacherName = %q, want empty", cfg.TeacherName)
	}
	if cfg.CurriculumWatch {
		t.Error("CurriculumWatch should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("LESSON_SERVER_PORT", "9090")
	t.Setenv("LESSON_STORAGE_BACKEND", "SQLite")
	t.Setenv("LESSON_DATA_DIR", "/var/lib/lessonplan")
	t.Setenv("LESSON_APP_BASE_URL", "https://plans.example.com/")
	t.Setenv("LESSON_CACHE_TTL", "90m")
	t.Setenv("LESSON_TELEGRAM_BOT_TOKEN", "test-token-123")
	t.Setenv("LESSON_TEACHER_NAME", "김선생")
	t.Setenv("LESSON_CURRICULUM_WATCH", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if got := cfg.Storage.SQLitePath(); got != "/var/lib/lessonplan/library.db" {
		t.Errorf("SQLitePath() = %q", got)
	}
	if got := cfg.Storage.SyllabiDir(); got != "/var/lib/lessonplan/syllabi" {
		t.Errorf("SyllabiDir() = %q", got)
	}
	if cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("Cache.TTL = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Telegram.BotToken != "test-token-123" {
		t.Errorf("Telegram.BotToken = %q, want test-token-123", cfg.Telegram.BotToken)
	}
	if cfg.TeacherName != "김선생" {
		t.Errorf("TeacherName = %q", cfg.TeacherName)
	}
	if !cfg.CurriculumWatch {
		t.Error("CurriculumWatch should be true")
	}
	if got := cfg.RedirectURL(); got != "https://plans.example.com/oauth/callback" {
		t.Errorf("RedirectURL() = %q", got)
	}
}

func TestLoad_GoogleFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantSA  string
		wantUsr string
	}{
		{"none", nil, "", ""},
		{"unprefixed", map[string]string{"GOOGLE_SERVICE_ACCOUNT_JSON": "sa", "GOOGLE_OAUTH_USER_JSON": "usr"}, "sa", "usr"},
		{"prefixed wins", map[string]string{"GOOGLE_SERVICE_ACCOUNT_JSON": "sa", "LESSON_GOOGLE_SERVICE_ACCOUNT_JSON": "lesson-sa"}, "lesson-sa", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Google.ServiceAccountJSON != tt.wantSA {
				t.Errorf("ServiceAccountJSON = %q, want %q", cfg.Google.ServiceAccountJSON, tt.wantSA)
			}
			if cfg.Google.OAuthUserJSON != tt.wantUsr {
				t.Errorf("OAuthUserJSON = %q, want %q", cfg.Google.OAuthUserJSON, tt.wantUsr)
			}
			if want := tt.wantSA != "" || tt.wantUsr != ""; cfg.HasGoogleCredentials() != want {
				t.Errorf("HasGoogleCredentials() = %v, want %v", cfg.HasGoogleCredentials(), want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"memory backend", map[string]string{"LESSON_STORAGE_BACKEND": "memory"}, false},
		{"unknown backend", map[string]string{"LESSON_STORAGE_BACKEND": "mongo"}, true},
		{"postgres without url", map[string]string{"LESSON_STORAGE_BACKEND": "postgres"}, true},
		{"postgres with url", map[string]string{"LESSON_STORAGE_BACKEND": "postgres", "LESSON_DATABASE_URL": "postgres://x@localhost/db"}, false},
		{"bad port", map[string]string{"LESSON_SERVER_PORT": "70000"}, true},
		{"bad log format", map[string]string{"LESSON_LOG_FORMAT": "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvParsing(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want bool
	}{
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"false", "false", false},
		{"1", "1", true},
		{"0", "0", false},
		{"invalid", "notabool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LESSON_CURRICULUM_WATCH", tt.val)
			cfg, _ := Load()
			if cfg.CurriculumWatch != tt.want {
				t.Errorf("CurriculumWatch = %v, want %v", cfg.CurriculumWatch, tt.want)
			}
		})
	}

	clearEnv(t)
	t.Setenv("LESSON_CACHE_TTL", "soon")
	t.Setenv("LESSON_SERVER_PORT", "eighty")
	cfg, _ := Load()
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("invalid duration should fall back, got %v", cfg.Cache.TTL)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("invalid int should fall back, got %d", cfg.Server.Port)
	}
}

func TestRedirectURL_DefaultsToLocalhost(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8081}}
	if got := cfg.RedirectURL(); got != "http://localhost:8081/oauth/callback" {
		t.Errorf("RedirectURL() = %q", got)
	}
}
