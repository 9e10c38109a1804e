// Package config loads application configuration from environment variables.
// All variables use the LESSON_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server          ServerConfig
	Storage         StorageConfig
	Database        DatabaseConfig
	Cache           CacheConfig
	Google          GoogleConfig
	Telegram        TelegramConfig
	Render          RenderConfig
	Log             LogConfig
	CurriculumPath  string
	CurriculumWatch bool
	TeacherName     string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int
	Host    string
	BaseURL string
}

// StorageConfig selects where the syllabus library lives.
type StorageConfig struct {
	Backend string
	DataDir string
}

// SyllabiDir is where uploaded PDFs are stored.
func (s StorageConfig) SyllabiDir() string {
	return filepath.Join(s.DataDir, "syllabi")
}

// IndexPath is the JSON index used by the file backend.
func (s StorageConfig) IndexPath() string {
	return filepath.Join(s.DataDir, "syllabi_index.json")
}

// SQLitePath is the database file used by the sqlite backend.
func (s StorageConfig) SQLitePath() string {
	return filepath.Join(s.DataDir, "library.db")
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL selects the
// in-process cache.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// GoogleConfig holds Google Docs export settings.
type GoogleConfig struct {
	OAuthClientJSON    string
	OAuthUserJSON      string
	ServiceAccountJSON string
	FolderID           string
}

// TelegramConfig holds Telegram Bot API settings.
type TelegramConfig struct {
	BotToken string
}

// RenderConfig holds document rendering settings.
type RenderConfig struct {
	FontPath string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LESSON_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    envInt("LESSON_SERVER_PORT", 8080),
			Host:    envStr("LESSON_SERVER_HOST", "0.0.0.0"),
			BaseURL: strings.TrimRight(envStr("LESSON_APP_BASE_URL", ""), "/"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(envStr("LESSON_STORAGE_BACKEND", StorageFile)),
			DataDir: envStr("LESSON_DATA_DIR", "./data"),
		},
		Database: DatabaseConfig{
			URL:      envStr("LESSON_DATABASE_URL", ""),
			MaxConns: envInt("LESSON_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("LESSON_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("LESSON_CACHE_URL", ""),
			TTL: envDuration("LESSON_CACHE_TTL", 24*time.Hour),
		},
		Google: GoogleConfig{
			OAuthClientJSON:    envStr("LESSON_GOOGLE_OAUTH_CLIENT_JSON", envStr("GOOGLE_OAUTH_CLIENT_JSON", "")),
			OAuthUserJSON:      envStr("LESSON_GOOGLE_OAUTH_USER_JSON", envStr("GOOGLE_OAUTH_USER_JSON", "")),
			ServiceAccountJSON: envStr("LESSON_GOOGLE_SERVICE_ACCOUNT_JSON", envStr("GOOGLE_SERVICE_ACCOUNT_JSON", "")),
			FolderID:           envStr("LESSON_GOOGLE_FOLDER_ID", ""),
		},
		Telegram: TelegramConfig{
			BotToken: envStr("LESSON_TELEGRAM_BOT_TOKEN", ""),
		},
		Render: RenderConfig{
			FontPath: envStr("LESSON_RENDER_FONT_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("LESSON_LOG_LEVEL", "info"),
			Format: envStr("LESSON_LOG_FORMAT", "json"),
		},
		CurriculumPath:  envStr("LESSON_CURRICULUM_PATH", ""),
		CurriculumWatch: envBool("LESSON_CURRICULUM_WATCH", false),
		TeacherName:     envStr("LESSON_TEACHER_NAME", ""),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageFile, StorageSQLite:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("LESSON_DATABASE_URL is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("LESSON_STORAGE_BACKEND must be one of memory, file, sqlite, postgres, got %q", c.Storage.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LESSON_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LESSON_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasGoogleCredentials returns true if any Google credential source is configured.
func (c *Config) HasGoogleCredentials() bool {
	return c.Google.OAuthUserJSON != "" || c.Google.ServiceAccountJSON != ""
}

// RedirectURL is the OAuth callback registered with Google.
func (c *Config) RedirectURL() string {
	base := c.Server.BaseURL
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	return base + "/oauth/callback"
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
