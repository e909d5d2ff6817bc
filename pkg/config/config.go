// Package config loads process configuration from the environment,
// with optional .env file support for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full process configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	TTL      TTLConfig
	Log      LogConfig
}

// ServerConfig configures the inbound HTTP server.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// HomepageURL is where the bare root path redirects to.
	HomepageURL string
}

// UpstreamConfig configures the outbound AppView and PDS endpoints.
type UpstreamConfig struct {
	// AppViewURL is the base URL of the public AppView XRPC API.
	AppViewURL string

	// PDSURL is the base URL used to build sync getBlob URLs.
	PDSURL string

	// UserAgent sent on every upstream request.
	UserAgent string

	// Timeout bounds every single upstream call.
	Timeout time.Duration
}

// RedisConfig configures the cache backend. An empty Addr selects the
// in-process cache instead of redis.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// TTLConfig holds the cache TTL tiers. Identity bindings and post media
// are close to immutable, profile images churn more often.
type TTLConfig struct {
	Identity time.Duration
	Profile  time.Duration
	Post     time.Duration
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			HomepageURL:  getEnv("HOMEPAGE_URL", "https://github.com/federationstudio/blob-direct"),
		},
		Upstream: UpstreamConfig{
			AppViewURL: getEnv("APPVIEW_URL", "https://public.api.bsky.app"),
			PDSURL:     getEnv("PDS_URL", "https://bsky.social"),
			UserAgent:  getEnv("USER_AGENT", "blob-direct/1.0"),
			Timeout:    getDurationEnv("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			Namespace: getEnv("REDIS_NAMESPACE", "blobdirect"),
		},
		TTL: TTLConfig{
			Identity: getDurationEnv("CACHE_TTL_IDENTITY", 24*time.Hour),
			Profile:  getDurationEnv("CACHE_TTL_PROFILE", 6*time.Hour),
			Post:     getDurationEnv("CACHE_TTL_POST", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getBoolEnv("LOG_PRETTY", false),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
