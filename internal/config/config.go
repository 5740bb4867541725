package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	TryOnAPIBaseURL         string
	TryOnHTTPTimeoutSeconds int
	TryOnBreakerEnabled     bool

	CatalogPath       string
	ResultStoragePath string

	NATSURL     string
	NATSSubject string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxUploadMB    int

	WorkerMetricsPort string
}

// TryOnHTTPTimeout is zero when the backend calls should wait indefinitely.
func (c Config) TryOnHTTPTimeout() time.Duration {
	if c.TryOnHTTPTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TryOnHTTPTimeoutSeconds) * time.Second
}

func (c Config) MaxUploadBytes() int64 {
	mb := c.APIMaxUploadMB
	if mb <= 0 {
		mb = 20
	}
	return int64(mb) << 20
}

func (c Config) EventsEnabled() bool {
	return c.NATSURL != ""
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		TryOnAPIBaseURL:         mustEnv("TRYON_API_BASE_URL", "http://localhost:8000"),
		TryOnHTTPTimeoutSeconds: mustEnvInt("TRYON_HTTP_TIMEOUT_SECONDS", 0),
		TryOnBreakerEnabled:     mustEnvBool("TRYON_BREAKER_ENABLED", true),

		CatalogPath:       mustEnv("CATALOG_PATH", ""),
		ResultStoragePath: mustEnv("RESULT_STORAGE_PATH", "./data/results"),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "tryon.session.events"),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxUploadMB:    mustEnvInt("API_MAX_UPLOAD_MB", 20),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// LoadDotEnv reads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
