/*
Package configs is responsible for loading and parsing the application's configuration settings.

All settings come from operating system environment variables, with defaults suitable
for local development. A .env file in the working directory (or the file named by ENV_FILE)
is loaded first; variables already set in the process environment take precedence.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	PublicDir   string

	// Security Settings
	AllowedOrigins []string

	// Chat Settings
	BannedWords []string
	EventRate   float64
	EventBurst  int

	// Observability Settings
	LogFile        string
	MetricsEnabled bool
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
func LoadConfig() (*AppConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	cfg.PublicDir = os.Getenv("PUBLIC_DIR")
	if cfg.PublicDir != "" {
		info, err := os.Stat(cfg.PublicDir)
		if err != nil {
			return nil, fmt.Errorf("invalid PUBLIC_DIR environment variable: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("PUBLIC_DIR %q is not a directory", cfg.PublicDir)
		}
	}

	// --- Security Settings ---
	cfg.AllowedOrigins = listEnv("ALLOWED_ORIGINS")

	// --- Chat Settings ---
	cfg.BannedWords = listEnv("BANNED_WORDS")

	eventRate := 5.0
	if s := os.Getenv("EVENT_RATE"); s != "" {
		eventRate, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid EVENT_RATE environment variable: %w", err)
		}
	}
	if eventRate <= 0 {
		return nil, fmt.Errorf("EVENT_RATE must be positive, got %v", eventRate)
	}
	cfg.EventRate = eventRate

	cfg.EventBurst, err = intEnv("EVENT_BURST", 10)
	if err != nil {
		return nil, err
	}
	if cfg.EventBurst < 1 {
		return nil, fmt.Errorf("EVENT_BURST must be at least 1, got %d", cfg.EventBurst)
	}

	// --- Observability Settings ---
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.MetricsEnabled = true
	if s := os.Getenv("METRICS_ENABLED"); s != "" {
		cfg.MetricsEnabled, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_ENABLED environment variable: %w", err)
		}
	}

	return cfg, nil
}

// loadDotEnv loads ENV_FILE, or .env by default. A missing default file is not an error.
func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

// listEnv splits a comma separated variable, dropping blank entries. It never returns nil.
func listEnv(key string) []string {
	out := []string{}
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
