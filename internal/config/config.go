package config

import (
	"os"
	"strconv"
	"time"

	"github.com/Alwanly/service-refresh-watcher/pkg/pubsub"
	"github.com/Alwanly/service-refresh-watcher/pkg/retry"
)

// State backends accepted by STATE_BACKEND.
const (
	StateBackendMemory = "memory"
	StateBackendSQLite = "sqlite"
)

type WatcherConfig struct {
	ServerAddr             string
	StoresFile             string
	RefreshInterval        time.Duration
	BackgroundPollInterval time.Duration
	RequestTimeout         time.Duration
	RequestsPerSecond      float64
	StateBackend           string
	StateDatabasePath      string
	// StateResetOnStart drops persisted state at startup so the first poll is a baseline.
	StateResetOnStart bool
	NotifyChannel          string
	// RefreshOnRequest triggers a refresh on every incoming HTTP request.
	RefreshOnRequest bool
	// Redis is nil when REDIS_HOST is unset.
	Redis *pubsub.RedisConfig
	// NATSURL is empty when no NATS broker is configured.
	NATSURL string
	Connect retry.Config
}

type ConfigStoreConfig struct {
	ServerAddr     string
	DatabasePath   string
	AdminUsername  string
	AdminPassword  string
	ReaderUsername string
	ReaderPassword string
}

// LoadWatcherConfig reads watcher config from environment or returns defaults
func LoadWatcherConfig() (*WatcherConfig, error) {
	cfg := &WatcherConfig{
		ServerAddr:             envOrDefault("WATCHER_ADDR", ":8090"),
		StoresFile:             envOrDefault("STORES_FILE", "./stores.yaml"),
		RefreshInterval:        envSeconds("REFRESH_INTERVAL", 30*time.Second),
		BackgroundPollInterval: envSeconds("BACKGROUND_POLL_INTERVAL", 30*time.Second),
		RequestTimeout:         envSeconds("REQUEST_TIMEOUT", 10*time.Second),
		RequestsPerSecond:      5,
		StateBackend:           envOrDefault("STATE_BACKEND", StateBackendMemory),
		StateDatabasePath:      envOrDefault("STATE_DATABASE_PATH", "./data/watcher.db"),
		StateResetOnStart:      envOrDefault("STATE_RESET_ON_START", "true") == "true",
		NotifyChannel:          envOrDefault("NOTIFY_CHANNEL", "config.refresh"),
		RefreshOnRequest:       envOrDefault("REFRESH_ON_REQUEST", "true") == "true",
		NATSURL:                os.Getenv("NATS_URL"),
		Connect: retry.Config{
			MaxRetries:     envInt("CONNECT_MAX_RETRIES", 5),
			InitialBackoff: envSeconds("CONNECT_INITIAL_BACKOFF", time.Second),
			MaxBackoff:     envSeconds("CONNECT_MAX_BACKOFF", 30*time.Second),
			Multiplier:     2.0,
		},
	}

	if v := os.Getenv("REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestsPerSecond = f
		}
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis = &pubsub.RedisConfig{
			Host:     host,
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		}
	}

	return cfg, nil
}

// LoadConfigStoreConfig reads configstore config from environment or returns defaults
func LoadConfigStoreConfig() (*ConfigStoreConfig, error) {
	return &ConfigStoreConfig{
		ServerAddr:     envOrDefault("CONFIGSTORE_ADDR", ":8080"),
		DatabasePath:   envOrDefault("DATABASE_PATH", "./data/configstore.db"),
		AdminUsername:  envOrDefault("ADMIN_USER", "admin"),
		AdminPassword:  envOrDefault("ADMIN_PASSWORD", "password"),
		ReaderUsername: envOrDefault("READER_USER", "reader"),
		ReaderPassword: envOrDefault("READER_PASSWORD", "readerpass"),
	}, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
