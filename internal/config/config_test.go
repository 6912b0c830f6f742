package config

import (
	"errors"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"TOKEN_API": "secret"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Port != "8080" || cfg.GinMode != "debug" || cfg.LogLevel != "info" || cfg.LogJSON {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Database.Enabled() {
		t.Error("database must be disabled without DB_HOST")
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.OCRCommand != "tesseract" || cfg.OCRTimeout != 2*time.Minute {
		t.Errorf("unexpected OCR defaults: %s %s", cfg.OCRCommand, cfg.OCRTimeout)
	}
	if cfg.RateLimitPerMinute != 60 || cfg.CacheSize != 128 || cfg.CacheTTL != 30*time.Minute {
		t.Errorf("unexpected limits: %+v", cfg)
	}
	if cfg.Timezone == nil {
		t.Error("Timezone must never be nil")
	}
	if len(cfg.NoiseExtraPatterns) != 0 {
		t.Errorf("NoiseExtraPatterns = %v", cfg.NoiseExtraPatterns)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TOKEN_API":             "secret",
		"PORT":                  "9090",
		"LOG_JSON":              "sim",
		"DB_HOST":               "db",
		"DB_NAME":               "progress",
		"TIMEZONE":              "UTC",
		"MAX_UPLOAD_MB":         "2",
		"OCR_TIMEOUT":           "30s",
		"NOISE_EXTRA_PATTERNS":  `^lunch; ^break\b ;;`,
		"RATE_LIMIT_PER_MINUTE": "120",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Port != "9090" || !cfg.LogJSON {
		t.Errorf("unexpected server config: %+v", cfg)
	}
	if !cfg.Database.Enabled() || cfg.Database.DBName != "progress" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Timezone != time.UTC {
		t.Errorf("Timezone = %v", cfg.Timezone)
	}
	if cfg.MaxUploadBytes != 2*1024*1024 || cfg.OCRTimeout != 30*time.Second {
		t.Errorf("unexpected limits: %d %s", cfg.MaxUploadBytes, cfg.OCRTimeout)
	}
	want := []string{`^lunch`, `^break\b`}
	if len(cfg.NoiseExtraPatterns) != 2 || cfg.NoiseExtraPatterns[0] != want[0] || cfg.NoiseExtraPatterns[1] != want[1] {
		t.Errorf("NoiseExtraPatterns = %q, want %q", cfg.NoiseExtraPatterns, want)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
}

func TestFromEnvErrors(t *testing.T) {
	if _, err := FromEnv(envMap(nil)); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}

	bad := []map[string]string{
		{"TOKEN_API": "x", "MAX_UPLOAD_MB": "0"},
		{"TOKEN_API": "x", "OCR_TIMEOUT": "soon"},
		{"TOKEN_API": "x", "LOG_JSON": "maybe"},
		{"TOKEN_API": "x", "CACHE_SIZE": "big"},
	}
	for _, env := range bad {
		if _, err := FromEnv(envMap(env)); err == nil {
			t.Errorf("expected error for %v", env)
		}
	}
}

func TestLocalConfigDoesNotRequireToken(t *testing.T) {
	cfg, err := fromEnv(envMap(map[string]string{"PROGRESS_DIR": "/var/lib/progress"}), false)
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.TokenAPI != "" || cfg.ProgressDir != "/var/lib/progress" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := FromEnv(envMap(nil)); !errors.Is(err, ErrMissingToken) {
		t.Errorf("FromEnv without token = %v, want ErrMissingToken", err)
	}
}
