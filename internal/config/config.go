package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	APIURL               string
	HTTPTimeout          time.Duration
	SessionStore         string
	SessionFile          string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisPrefix          string
	BookingRedirectDelay time.Duration
	LogLevel             slog.Level
	// Source is the config file that was read, or "" when none was found.
	Source string
}

type fileConfig struct {
	APIURL      string `yaml:"api_url"`
	HTTPTimeout string `yaml:"http_timeout"`
	Session     struct {
		Store         string `yaml:"store"`
		File          string `yaml:"file"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisPrefix   string `yaml:"redis_prefix"`
	} `yaml:"session"`
	BookingRedirectDelay string `yaml:"booking_redirect_delay"`
	LogLevel             string `yaml:"log_level"`
}

// Load layers environment variables over the optional YAML file over
// built-in defaults. The config file is shared; default session locations
// are keyed by program so each client keeps its own sign-in.
func Load(program string) (Config, error) {
	path := Path()
	var file fileConfig
	source := ""
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		source = path
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Config{
		APIURL:               getenv("RENTAL_API_URL", or(file.APIURL, "http://localhost:5000/api")),
		HTTPTimeout:          getenvDuration("RENTAL_HTTP_TIMEOUT", parseDuration(file.HTTPTimeout, 15*time.Second)),
		SessionStore:         strings.ToLower(getenv("RENTAL_SESSION_STORE", or(file.Session.Store, StoreFile))),
		SessionFile:          getenv("RENTAL_SESSION_FILE", or(file.Session.File, defaultSessionFile(program))),
		RedisAddr:            getenv("RENTAL_REDIS_ADDR", or(file.Session.RedisAddr, "127.0.0.1:6379")),
		RedisPassword:        getenv("RENTAL_REDIS_PASSWORD", file.Session.RedisPassword),
		RedisDB:              getenvInt("RENTAL_REDIS_DB", file.Session.RedisDB),
		RedisPrefix:          getenv("RENTAL_REDIS_PREFIX", or(file.Session.RedisPrefix, "rental-portal:"+program+":")),
		BookingRedirectDelay: getenvDuration("RENTAL_BOOKING_REDIRECT_DELAY", parseDuration(file.BookingRedirectDelay, 2*time.Second)),
		Source:               source,
	}

	level := getenv("RENTAL_LOG_LEVEL", or(file.LogLevel, "info"))
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("log level %q: %w", level, err)
	}

	switch cfg.SessionStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return Config{}, fmt.Errorf("session store %q: want file, redis or memory", cfg.SessionStore)
	}
	return cfg, nil
}

// Path returns $RENTAL_CONFIG, or config.yaml under the XDG config directory.
func Path() string {
	if envPath := os.Getenv("RENTAL_CONFIG"); envPath != "" {
		return envPath
	}
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "rental-portal")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "rental-portal")
}

func defaultSessionFile(program string) string {
	return filepath.Join(configDir(), "session-"+program+".json")
}

func or(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return fallback
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
