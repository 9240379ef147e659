// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// WARDROBE_CONFIG, then WARDROBE_* environment variables.
package config

import (
	"runtime"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// CatalogPath points at the styles CSV.
	CatalogPath string `koanf:"catalog_path" validate:"required"`
	// ImagesDir is scanned for <id>.jpg|.png product images.
	ImagesDir string `koanf:"images_dir"`
	// FallbackImage is used for products without an image when present in ImagesDir.
	FallbackImage string `koanf:"fallback_image"`

	// StoreDriver selects the interaction/review store: memory or postgres.
	StoreDriver      string `koanf:"store_driver" validate:"oneof=memory postgres"`
	PostgresDSN      string `koanf:"postgres_dsn" validate:"required_if=StoreDriver postgres"`
	PostgresMaxConns int    `koanf:"postgres_max_conns" validate:"gte=1"`

	// RedisAddr enables the recommendation cache when set.
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db" validate:"gte=0"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds" validate:"gte=1"`

	// RecommendationLimit caps the size of a recommendation list. Lists never exceed 8.
	RecommendationLimit int `koanf:"recommendation_limit" validate:"gte=1,lte=8"`
	// MaxPageLimit caps ?limit on paginated endpoints.
	MaxPageLimit     int `koanf:"max_page_limit" validate:"gte=1"`
	DefaultPageLimit int `koanf:"default_page_limit" validate:"gte=1,ltefield=MaxPageLimit"`

	// DemoUsername is the account used when a request carries no user id.
	DemoUsername string `koanf:"demo_username" validate:"required"`

	// WorkerCount sets the number of cache invalidation workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`
	// QueueSize bounds the pending invalidation queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// RateLimitPerMinute limits write requests per client IP. Zero disables it.
	RateLimitPerMinute int      `koanf:"rate_limit_per_minute" validate:"gte=0"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// MetricsNamespace and MetricsSubsystem prefix every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"omitempty,metricname"`
	MetricsSubsystem string `koanf:"metrics_subsystem" validate:"omitempty,metricname"`
	// MetricsLatencyBuckets overrides the millisecond latency histogram buckets.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets" validate:"dive,gt=0"`
	// MetricsConstLabels are attached to every metric. File only.
	MetricsConstLabels map[string]string `koanf:"metrics_const_labels" validate:"dive,keys,metricname,endkeys,required"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		CatalogPath:         "data/styles.csv",
		ImagesDir:           "data/images",
		FallbackImage:       "fallback.jpg",
		StoreDriver:         StoreMemory,
		PostgresMaxConns:    10,
		CacheTTLSeconds:     300,
		RecommendationLimit: 8,
		MaxPageLimit:        100,
		DefaultPageLimit:    12,
		DemoUsername:        "demo",
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           10_000,
		RateLimitPerMinute:  600,
		CORSAllowedOrigins:  []string{"*"},
		MetricsNamespace:    "wardrobe",
		MetricsSubsystem:    "recommender",
	}
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
