package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port string `toml:"port"`

	// Auth
	APIKey string `toml:"api_key"`

	// Storage
	DBPath string `toml:"db_path"`

	// Pathstore export; disabled when URL is empty.
	PathstoreURL       string `toml:"pathstore_url"`
	PathstoreAPIKey    string `toml:"pathstore_api_key"`
	MaxConcurrentStore int    `toml:"max_concurrent_store"`

	// Worker pool
	WorkerCount  int `toml:"worker_count"`
	MaxQueueSize int `toml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	// Parser
	ParseSourceRecords bool `toml:"parse_source_records"`

	// Job state
	JobTTL Duration `toml:"job_ttl"`

	// Parse latency window
	StatsWindow Duration `toml:"stats_window"`
}

// Duration lets TOML files spell durations as "90s" or "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func defaults() Config {
	return Config{
		Port:               "8090",
		DBPath:             "gedgest.db",
		MaxConcurrentStore: 10,
		WorkerCount:        4,
		MaxQueueSize:       100,
		MaxUploadBytes:     52428800, // 50MB
		JobTTL:             Duration{1 * time.Hour},
		StatsWindow:        Duration{1 * time.Hour},
	}
}

// Load reads the TOML file named by GEDGEST_CONFIG (if set), then applies
// environment overrides.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("GEDGEST_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("GEDGEST_API_KEY", cfg.APIKey)
	cfg.DBPath = envOr("GEDGEST_DB_PATH", cfg.DBPath)

	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)
	cfg.MaxConcurrentStore = envInt("MAX_CONCURRENT_STORE", cfg.MaxConcurrentStore)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.ParseSourceRecords = envBool("PARSE_SOURCE_RECORDS", cfg.ParseSourceRecords)

	cfg.JobTTL.Duration = envDuration("JOB_TTL", cfg.JobTTL.Duration)
	cfg.StatsWindow.Duration = envDuration("STATS_WINDOW", cfg.StatsWindow.Duration)

	d := defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = d.MaxConcurrentStore
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.JobTTL.Duration <= 0 {
		cfg.JobTTL = d.JobTTL
	}
	if cfg.StatsWindow.Duration <= 0 {
		cfg.StatsWindow = d.StatsWindow
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEDGEST_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("GEDGEST_DB_PATH is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// ExportEnabled reports whether parsed documents are mirrored to pathstore.
func (c Config) ExportEnabled() bool {
	return c.PathstoreURL != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
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
