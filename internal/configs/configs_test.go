package configs

import (
	"os"
	"path/filepath"
	"testing"
)

var configKeys = []string{
	"ENV_FILE", "ENVIRONMENT", "PORT", "PUBLIC_DIR", "ALLOWED_ORIGINS", "BANNED_WORDS",
	"EVENT_RATE", "EVENT_BURST", "LOG_FILE", "METRICS_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != "development" || !cfg.IsDevelopment() {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.AllowedOrigins == nil || len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %#v, want empty", cfg.AllowedOrigins)
	}
	if cfg.EventRate != 5 || cfg.EventBurst != 10 {
		t.Errorf("event limiter = %v/%d, want 5/10", cfg.EventRate, cfg.EventBurst)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled should default to true")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("PUBLIC_DIR", dir)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("BANNED_WORDS", "darn,heck")
	t.Setenv("EVENT_RATE", "2.5")
	t.Setenv("EVENT_BURST", "3")
	t.Setenv("LOG_FILE", filepath.Join(dir, "relay.log"))
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.Port != 9000 || cfg.PublicDir != dir {
		t.Errorf("Port/PublicDir = %d/%q", cfg.Port, cfg.PublicDir)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if len(cfg.BannedWords) != 2 {
		t.Errorf("BannedWords = %v", cfg.BannedWords)
	}
	if cfg.EventRate != 2.5 || cfg.EventBurst != 3 {
		t.Errorf("event limiter = %v/%d", cfg.EventRate, cfg.EventBurst)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non numeric port", "PORT", "eighty"},
		{"privileged port", "PORT", "80"},
		{"port too high", "PORT", "70000"},
		{"missing public dir", "PUBLIC_DIR", "/definitely/not/here"},
		{"public dir is file", "PUBLIC_DIR", file},
		{"bad rate", "EVENT_RATE", "fast"},
		{"zero rate", "EVENT_RATE", "0"},
		{"zero burst", "EVENT_BURST", "0"},
		{"bad metrics flag", "METRICS_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			if _, err := LoadConfig(); err == nil {
				t.Errorf("LoadConfig() with %s=%q succeeded", tt.key, tt.val)
			}
		})
	}
}

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	clearEnv(t)
	unsetEnv(t, "EVENT_BURST")
	t.Setenv("PORT", "9100")

	dir := t.TempDir()
	content := "EVENT_BURST=4\nPORT=9200\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.EventBurst != 4 {
		t.Errorf("EventBurst = %d, want 4 from .env", cfg.EventBurst)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, process environment should win over .env", cfg.Port)
	}
}

func TestLoadConfigExplicitEnvFile(t *testing.T) {
	clearEnv(t)
	unsetEnv(t, "EVENT_BURST")

	path := filepath.Join(t.TempDir(), "relay.env")
	if err := os.WriteFile(path, []byte("EVENT_BURST=7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.EventBurst != 7 {
		t.Errorf("EventBurst = %d, want 7", cfg.EventBurst)
	}

	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with a missing ENV_FILE succeeded")
	}
}
