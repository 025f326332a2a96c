package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	OTLP    OTLPConfig
	Backend BackendConfig
	Cache   CacheConfig
	Catalog CatalogConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type OTLPConfig struct {
	Endpoint    string
	ServiceName string
	Environment string
	// Enabled turns on OTLP export. When false telemetry runs in no-op
	// mode and only the Prometheus endpoint carries metrics.
	Enabled bool
}

// BackendConfig selects the catalog service. An empty URL uses the
// in-memory backend.
type BackendConfig struct {
	URL         string
	Timeout     time.Duration
	AdminTokens []string
}

type CacheConfig struct {
	ReadAttempts uint
	RetryDelay   time.Duration
}

type CatalogConfig struct {
	WrenchImageURL string
}

// LoadConfig loads configuration from a .env file, if present, and then
// from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		OTLP: OTLPConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "hardware-storefront"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
			Enabled:     getEnvBool("OTEL_ENABLED", false),
		},
		Backend: BackendConfig{
			URL:         getEnv("BACKEND_URL", ""),
			Timeout:     getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
			AdminTokens: getEnvList("ADMIN_TOKENS"),
		},
		Cache: CacheConfig{
			ReadAttempts: uint(getEnvInt("CACHE_READ_ATTEMPTS", 3)),
			RetryDelay:   getEnvDuration("CACHE_RETRY_DELAY", 200*time.Millisecond),
		},
		Catalog: CatalogConfig{
			WrenchImageURL: getEnv("WRENCH_IMAGE_URL", "/assets/generated/open-end-wrench.png"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v >= 0 {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
