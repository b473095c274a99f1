package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("RENTAL_CONFIG", "")
	for _, key := range []string{
		"RENTAL_API_URL", "RENTAL_HTTP_TIMEOUT", "RENTAL_SESSION_STORE", "RENTAL_SESSION_FILE",
		"RENTAL_REDIS_ADDR", "RENTAL_REDIS_PASSWORD", "RENTAL_REDIS_DB", "RENTAL_REDIS_PREFIX",
		"RENTAL_BOOKING_REDIRECT_DELAY", "RENTAL_BOOKING_REDIRECT_DELAY_SECONDS", "RENTAL_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("portal")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:5000/api" {
		t.Fatalf("expected default api url, got %s", cfg.APIURL)
	}
	if cfg.SessionStore != StoreFile {
		t.Fatalf("expected file store, got %s", cfg.SessionStore)
	}
	if cfg.SessionFile != filepath.Join(dir, "rental-portal", "session-portal.json") {
		t.Fatalf("unexpected session file %s", cfg.SessionFile)
	}
	if cfg.RedisPrefix != "rental-portal:portal:" {
		t.Fatalf("unexpected redis prefix %s", cfg.RedisPrefix)
	}
	if cfg.BookingRedirectDelay != 2*time.Second {
		t.Fatalf("expected 2s redirect delay, got %s", cfg.BookingRedirectDelay)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.Source != "" {
		t.Fatalf("unexpected level %s or source %q", cfg.LogLevel, cfg.Source)
	}
}

func TestLoadKeysSessionByProgram(t *testing.T) {
	isolate(t)

	portal, err := Load("portal")
	if err != nil {
		t.Fatalf("load portal: %v", err)
	}
	backoffice, err := Load("backoffice")
	if err != nil {
		t.Fatalf("load backoffice: %v", err)
	}
	if portal.SessionFile == backoffice.SessionFile {
		t.Fatalf("expected separate session files, both got %s", portal.SessionFile)
	}
	if portal.RedisPrefix == backoffice.RedisPrefix {
		t.Fatalf("expected separate redis prefixes, both got %s", portal.RedisPrefix)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	data := []byte(`api_url: https://rent.example.com/api
http_timeout: 5s
session:
  store: redis
  redis_addr: redis.internal:6380
  redis_prefix: "tenant:"
booking_redirect_delay: 500ms
log_level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RENTAL_CONFIG", path)
	t.Setenv("RENTAL_REDIS_ADDR", "127.0.0.1:7000")
	t.Setenv("RENTAL_BOOKING_REDIRECT_DELAY_SECONDS", "3")

	cfg, err := Load("portal")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source != path {
		t.Fatalf("expected source %s, got %s", path, cfg.Source)
	}
	if cfg.APIURL != "https://rent.example.com/api" {
		t.Fatalf("expected file api url, got %s", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.SessionStore != StoreRedis || cfg.RedisPrefix != "tenant:" {
		t.Fatalf("unexpected session settings %+v", cfg)
	}
	if cfg.RedisAddr != "127.0.0.1:7000" {
		t.Fatalf("expected env to win over file, got %s", cfg.RedisAddr)
	}
	if cfg.BookingRedirectDelay != 3*time.Second {
		t.Fatalf("expected _SECONDS override, got %s", cfg.BookingRedirectDelay)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	isolate(t)
	t.Setenv("RENTAL_SESSION_STORE", "cookie")
	if _, err := Load("portal"); err == nil {
		t.Fatalf("expected unknown store error")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "rental-portal", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("session: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load("portal"); err == nil {
		t.Fatalf("expected parse error")
	}
}
