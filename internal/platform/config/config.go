// Package config builds typed runtime configuration from the environment.
// Every tunable that used to live in free-form settings blobs is a named
// field with an explicit default, loaded once at startup and passed by
// reference into services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Postgres  Postgres
	Redis     Redis
	Kafka     Kafka
	SMS       SMS
	Search    Search
	RateLimit RateLimit
	Pin       Pin
	OTP       OTP
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres captures the relational store connection settings.
type Postgres struct {
	DSN string
}

// Redis captures the shared key-value store settings. An empty URL means
// Redis is not configured and in-memory backends are used instead.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the audit/notification pipeline settings. Empty brokers
// means audit events stay on the local store only.
type Kafka struct {
	Brokers []string
	Topic   string
}

// SMS captures the outbound SMS gateway settings.
type SMS struct {
	GatewayURL  string
	APIKey      string
	CountryCode string
	Timeout     time.Duration
}

// Search captures public lookup behavior.
type Search struct {
	CacheTTL time.Duration
	PageSize int
}

// RateLimit captures the public search admission limits.
type RateLimit struct {
	MaxHourly     int
	MaxDaily      int
	BlockDuration time.Duration
}

// Pin captures PIN credential rules.
type Pin struct {
	MaxAttempts  int
	LockDuration time.Duration
	TokenSecret  string
	TokenTTL     time.Duration
}

// OTP captures one-time code rules.
type OTP struct {
	TTL             time.Duration
	MaxAttempts     int
	CleanupInterval time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("AIDGATE_ADDR", ":8080"),
			ShutdownTimeout: getDuration("AIDGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("AIDGATE_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("AIDGATE_REDIS_URL"),
			PoolSize:     getInt("AIDGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("AIDGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  getDuration("AIDGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("AIDGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("AIDGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("AIDGATE_KAFKA_BROKERS")),
			Topic:   getEnv("AIDGATE_KAFKA_AUDIT_TOPIC", "aidgate.audit"),
		},
		SMS: SMS{
			GatewayURL:  os.Getenv("AIDGATE_SMS_GATEWAY_URL"),
			APIKey:      os.Getenv("AIDGATE_SMS_API_KEY"),
			CountryCode: getEnv("AIDGATE_SMS_COUNTRY_CODE", "+970"),
			Timeout:     getDuration("AIDGATE_SMS_TIMEOUT", 15*time.Second),
		},
		Search: Search{
			CacheTTL: getDuration("AIDGATE_SEARCH_CACHE_TTL", 5*time.Minute),
			PageSize: getInt("AIDGATE_SEARCH_PAGE_SIZE", 20),
		},
		RateLimit: RateLimit{
			MaxHourly:     getInt("AIDGATE_RATELIMIT_HOURLY", 10),
			MaxDaily:      getInt("AIDGATE_RATELIMIT_DAILY", 50),
			BlockDuration: getDuration("AIDGATE_RATELIMIT_BLOCK", time.Hour),
		},
		Pin: Pin{
			MaxAttempts:  getInt("AIDGATE_PIN_MAX_ATTEMPTS", 5),
			LockDuration: getDuration("AIDGATE_PIN_LOCK_DURATION", 30*time.Minute),
			TokenSecret:  getEnv("AIDGATE_DISCLOSURE_TOKEN_SECRET", "dev-secret-change-in-production"),
			TokenTTL:     getDuration("AIDGATE_DISCLOSURE_TOKEN_TTL", 15*time.Minute),
		},
		OTP: OTP{
			TTL:             getDuration("AIDGATE_OTP_TTL", 5*time.Minute),
			MaxAttempts:     getInt("AIDGATE_OTP_MAX_ATTEMPTS", 5),
			CleanupInterval: getDuration("AIDGATE_OTP_CLEANUP_INTERVAL", 10*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
