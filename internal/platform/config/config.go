// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development-friendly default.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string

	Registry     Registry
	Redis        Redis
	Postgres     Postgres
	Kafka        Kafka
	Verification Verification
}

// Registry configures the external carrier registry client.
type Registry struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// UseMock swaps in the deterministic in-process registry. Development
	// only; never set in production.
	UseMock bool
}

// Redis configures the cache backend. An empty URL means Redis is not
// configured and the in-memory store is used instead.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres configures the durable verification store. Empty URL disables it.
type Postgres struct {
	URL string
}

// Kafka configures the verification event stream. No brokers disables it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Verification overrides the service's cache TTL policy. Zero values fall
// back to the service defaults.
type Verification struct {
	VerifiedTTL time.Duration
	NotFoundTTL time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr: envOr("LOADVOICE_ADDR", ":8080"),
		Registry: Registry{
			BaseURL: envOr("REGISTRY_BASE_URL", ""),
			APIKey:  os.Getenv("REGISTRY_API_KEY"),
			Timeout: envDuration("REGISTRY_TIMEOUT", 8*time.Second),
			UseMock: os.Getenv("REGISTRY_USE_MOCK") == "true",
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   os.Getenv("KAFKA_TOPIC"),
		},
		Verification: Verification{
			VerifiedTTL: envDuration("VERIFICATION_VERIFIED_TTL", 0),
			NotFoundTTL: envDuration("VERIFICATION_NOT_FOUND_TTL", 0),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
