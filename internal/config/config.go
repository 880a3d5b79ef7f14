package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the ContentPilot binaries.
type Config struct {
	Environment  string
	APIBaseURL   string
	StateDir     string
	LogLevel     string
	HTTPTimeout  time.Duration
	PollInterval time.Duration

	// mockapi only
	HTTPPort       int
	AllowedOrigins []string
	SigningSecret  string
	MonthlyQuota   int
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	signingSecret, err := getEnvOrFile("MOCKAPI_SECRET", "/run/secrets/contentpilot_mockapi_secret")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:    getEnv("APP_ENV", "development"),
		APIBaseURL:     strings.TrimRight(getEnv("CP_API_URL", "http://localhost:8000"), "/"),
		StateDir:       getEnv("CP_STATE_DIR", defaultStateDir()),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		SigningSecret:  strings.TrimSpace(signingSecret),
	}

	cfg.HTTPTimeout, err = parseDuration("CP_HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg.PollInterval, err = parseDuration("CP_POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8000"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	quotaValue := getEnv("MOCKAPI_MONTHLY_QUOTA", "30")
	quota, err := strconv.Atoi(quotaValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid monthly quota %q: %w", quotaValue, err)
	}
	cfg.MonthlyQuota = quota

	return cfg, nil
}

// HTTPAddress returns the address the mock API server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// SecureTransport reports whether the API base URL uses TLS.
func (c Config) SecureTransport() bool {
	return strings.HasPrefix(strings.ToLower(c.APIBaseURL), "https:")
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "contentpilot")
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
