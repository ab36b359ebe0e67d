package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr     string
	LogLevel string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	OrderSource OrderSourceConfig

	// MaxWindowDays bounds every historical query against the order source.
	MaxWindowDays int
	// DetectionWorkers bounds the per-batch worker pool.
	DetectionWorkers int

	Cache CacheConfig
}

// RedisConfig controls the shared cache / rate-limit backend.
// An empty URL means Redis is not configured and in-memory stores are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig controls the optional run-log retention store.
type PostgresConfig struct {
	URL string
}

// KafkaConfig controls the optional duplicate-event publisher.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// OrderSourceConfig controls calls to the upstream order platform.
type OrderSourceConfig struct {
	CallTimeout time.Duration
	PageSize    int
}

// CacheConfig holds the TTLs for each cached result class.
type CacheConfig struct {
	SearchTTL time.Duration
	DetailTTL time.Duration
	ProbeTTL  time.Duration
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		Addr:     getenv("ORDERSCOPE_ADDR", ":8080"),
		LogLevel: getenv("ORDERSCOPE_LOG_LEVEL", "info"),
		Redis: RedisConfig{
			URL:          os.Getenv("ORDERSCOPE_REDIS_URL"),
			PoolSize:     getenvInt("ORDERSCOPE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("ORDERSCOPE_REDIS_MIN_IDLE", 2),
			DialTimeout:  getenvDuration("ORDERSCOPE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("ORDERSCOPE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("ORDERSCOPE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("ORDERSCOPE_POSTGRES_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("ORDERSCOPE_KAFKA_BROKERS"),
			Topic:   getenv("ORDERSCOPE_KAFKA_TOPIC", "orderscope.duplicates"),
		},
		OrderSource: OrderSourceConfig{
			CallTimeout: getenvDuration("ORDERSCOPE_SOURCE_TIMEOUT", 15*time.Second),
			PageSize:    getenvInt("ORDERSCOPE_SOURCE_PAGE_SIZE", 250),
		},
		MaxWindowDays:    getenvInt("ORDERSCOPE_MAX_WINDOW_DAYS", 90),
		DetectionWorkers: getenvInt("ORDERSCOPE_DETECTION_WORKERS", 8),
		Cache: CacheConfig{
			SearchTTL: getenvDuration("ORDERSCOPE_CACHE_SEARCH_TTL", 5*time.Minute),
			DetailTTL: getenvDuration("ORDERSCOPE_CACHE_DETAIL_TTL", 15*time.Minute),
			ProbeTTL:  getenvDuration("ORDERSCOPE_CACHE_PROBE_TTL", time.Minute),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
