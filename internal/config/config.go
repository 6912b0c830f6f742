package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/database"
	"github.com/joho/godotenv"
)

// Config armazena as configurações da aplicação
type Config struct {
	TokenAPI string
	Port     string
	GinMode  string
	LogLevel string
	LogJSON  bool

	Database database.Config

	Timezone *time.Location
	DataDir  string

	// ProgressDir guarda os registros em arquivos quando não há banco
	ProgressDir string

	MaxUploadBytes     int64
	OCRCommand         string
	OCRLanguage        string
	OCRTimeout         time.Duration
	NoiseExtraPatterns []string

	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	HistoryMaxRecords  int
}

// ErrMissingToken indica que um token obrigatório não foi configurado
var ErrMissingToken = errors.New("token obrigatório não configurado")

// Load carrega as configurações do ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	return FromEnv(os.Getenv)
}

// LoadLocal carrega as configurações para ferramentas de linha de comando,
// onde TOKEN_API não é necessário
func LoadLocal() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv, false)
}

// FromEnv monta a configuração a partir de uma função de lookup
func FromEnv(getenv func(string) string) (*Config, error) {
	return fromEnv(getenv, true)
}

func fromEnv(getenv func(string) string, requireToken bool) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		TokenAPI: getenv("TOKEN_API"),
		Port:     env("PORT", "8080"),
		GinMode:  env("GIN_MODE", "debug"),
		LogLevel: env("LOG_LEVEL", "info"),
		DataDir:  env("DATA_DIR", os.TempDir()),

		ProgressDir: getenv("PROGRESS_DIR"),
		Database: database.Config{
			Host:            getenv("DB_HOST"),
			Port:            env("DB_PORT", "5432"),
			User:            env("DB_USER", "postgres"),
			Password:        getenv("DB_PASSWORD"),
			DBName:          env("DB_NAME", "schedule_progress"),
			SSLMode:         env("DB_SSLMODE", "disable"),
			ConnectAttempts: 5,
		},
		OCRCommand:  env("OCR_COMMAND", "tesseract"),
		OCRLanguage: env("OCR_LANGUAGE", "eng"),
	}

	if requireToken && cfg.TokenAPI == "" {
		return nil, fmt.Errorf("TOKEN_API: %w", ErrMissingToken)
	}

	var err error
	if cfg.LogJSON, err = parseBool(env("LOG_JSON", "false")); err != nil {
		return nil, fmt.Errorf("LOG_JSON: %w", err)
	}

	tz := env("TIMEZONE", "America/Sao_Paulo")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		// imagens mínimas podem não ter tzdata
		cfg.Timezone = time.UTC
	}

	maxMB, err := strconv.Atoi(env("MAX_UPLOAD_MB", "10"))
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB inválido: %q", getenv("MAX_UPLOAD_MB"))
	}
	cfg.MaxUploadBytes = int64(maxMB) * 1024 * 1024

	if cfg.OCRTimeout, err = time.ParseDuration(env("OCR_TIMEOUT", "2m")); err != nil {
		return nil, fmt.Errorf("OCR_TIMEOUT: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(env("CACHE_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if cfg.RateLimitPerMinute, err = strconv.Atoi(env("RATE_LIMIT_PER_MINUTE", "60")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
	}
	if cfg.CacheSize, err = strconv.Atoi(env("CACHE_SIZE", "128")); err != nil {
		return nil, fmt.Errorf("CACHE_SIZE: %w", err)
	}
	if cfg.HistoryMaxRecords, err = strconv.Atoi(env("HISTORY_MAX_RECORDS", "1000")); err != nil {
		return nil, fmt.Errorf("HISTORY_MAX_RECORDS: %w", err)
	}

	for _, p := range strings.Split(getenv("NOISE_EXTRA_PATTERNS"), ";") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.NoiseExtraPatterns = append(cfg.NoiseExtraPatterns, p)
		}
	}

	return cfg, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "sim", "yes", "on":
		return true, nil
	case "nao", "não", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
