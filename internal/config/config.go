package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	SourceJSON     = "json"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Corpus
	DataSource  string
	DataDir     string
	SQLitePath  string
	DatabaseURL string

	// Search
	EpisodeFuzzyThreshold int
	HostFuzzyThreshold    int

	// Admission
	MaxConcurrent           int
	MemoryThresholdMB       int // 0 disables the memory gate
	RequestTimeout          time.Duration
	CircuitFailureThreshold int
	CircuitCooldown         time.Duration

	// Workers
	WorkerCount int
	QueueSize   int

	// Sessions
	HeartbeatInterval time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// HTTP
	CORSOrigins []string
	AdminToken  string
}

var defaults = map[string]any{
	"port":                      "8080",
	"env":                       "development",
	"data_source":               SourceJSON,
	"data_dir":                  "./data",
	"sqlite_path":               "./data/corpus.db",
	"database_url":              "",
	"episode_fuzzy_threshold":   3,
	"host_fuzzy_threshold":      2,
	"max_concurrent_requests":   10,
	"memory_threshold_mb":       450,
	"request_timeout":           "30s",
	"circuit_failure_threshold": 5,
	"circuit_cooldown":          "60s",
	"worker_count":              0, // 0 means one per concurrent request
	"queue_size":                100,
	"heartbeat_interval":        "20s",
	"rate_limit_requests":       50,
	"rate_limit_window":         "1m",
	"cors_origins":              "*",
	"admin_token":               "",
}

// Load reads .env and an optional config.yaml from the working directory.
// Environment variables win over the file.
func Load() (*Config, error) {
	return LoadFrom(".")
}

func LoadFrom(dir string) (*Config, error) {
	// Load .env file if it exists
	godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	p := &parser{v: v}
	cfg := &Config{
		Port:        v.GetString("port"),
		Env:         v.GetString("env"),
		DataSource:  strings.ToLower(strings.TrimSpace(v.GetString("data_source"))),
		DataDir:     v.GetString("data_dir"),
		SQLitePath:  v.GetString("sqlite_path"),
		DatabaseURL: v.GetString("database_url"),
		AdminToken:  v.GetString("admin_token"),

		EpisodeFuzzyThreshold:   p.int("episode_fuzzy_threshold"),
		HostFuzzyThreshold:      p.int("host_fuzzy_threshold"),
		MaxConcurrent:           p.int("max_concurrent_requests"),
		MemoryThresholdMB:       p.int("memory_threshold_mb"),
		RequestTimeout:          p.duration("request_timeout"),
		CircuitFailureThreshold: p.int("circuit_failure_threshold"),
		CircuitCooldown:         p.duration("circuit_cooldown"),
		WorkerCount:             p.int("worker_count"),
		QueueSize:               p.int("queue_size"),
		HeartbeatInterval:       p.duration("heartbeat_interval"),
		RateLimitRequests:       p.int("rate_limit_requests"),
		RateLimitWindow:         p.duration("rate_limit_window"),
		CORSOrigins:             splitList(v.GetString("cors_origins")),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = cfg.MaxConcurrent
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.DataSource {
	case SourceJSON, SourceSQLite:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DATA_SOURCE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATA_SOURCE must be json, sqlite or postgres, got %q", c.DataSource))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"MAX_CONCURRENT_REQUESTS", c.MaxConcurrent},
		{"CIRCUIT_FAILURE_THRESHOLD", c.CircuitFailureThreshold},
		{"RATE_LIMIT_REQUESTS", c.RateLimitRequests},
		{"WORKER_COUNT", c.WorkerCount},
	}
	for _, n := range positive {
		if n.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", n.name, n.value))
		}
	}

	nonNegative := []struct {
		name  string
		value int
	}{
		{"EPISODE_FUZZY_THRESHOLD", c.EpisodeFuzzyThreshold},
		{"HOST_FUZZY_THRESHOLD", c.HostFuzzyThreshold},
		{"MEMORY_THRESHOLD_MB", c.MemoryThresholdMB},
		{"QUEUE_SIZE", c.QueueSize},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", n.name, n.value))
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"REQUEST_TIMEOUT", c.RequestTimeout},
		{"CIRCUIT_COOLDOWN", c.CircuitCooldown},
		{"HEARTBEAT_INTERVAL", c.HeartbeatInterval},
		{"RATE_LIMIT_WINDOW", c.RateLimitWindow},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %s", d.name, d.value))
		}
	}

	return errors.Join(errs...)
}

// MemoryThresholdBytes converts the megabyte setting for the admission
// controller, where a negative value turns the gate off.
func (c *Config) MemoryThresholdBytes() int64 {
	if c.MemoryThresholdMB == 0 {
		return -1
	}
	return int64(c.MemoryThresholdMB) * 1024 * 1024
}

// parser records the first malformed value instead of silently using zero.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) int(key string) int {
	n, err := cast.ToIntE(p.v.Get(key))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: invalid integer %q", strings.ToUpper(key), p.v.GetString(key))
	}
	return n
}

func (p *parser) duration(key string) time.Duration {
	d, err := cast.ToDurationE(p.v.Get(key))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: invalid duration %q", strings.ToUpper(key), p.v.GetString(key))
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
