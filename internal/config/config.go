package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	APIBaseURL     string
	APITimeoutMs   int
	APIRateLimit   int
	APIMaxAttempts int

	MunicipalityCacheHours int

	LogLevel  string
	LogFormat string
	Color     bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "compensa.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		APIBaseURL:     getEnv("COMPENSA_API_BASE_URL", "http://127.0.0.1:5002"),
		APITimeoutMs:   getEnvInt("COMPENSA_API_TIMEOUT_MS", 15000),
		APIRateLimit:   getEnvInt("COMPENSA_RATE_LIMIT_RPS", 5),
		APIMaxAttempts: getEnvInt("COMPENSA_API_MAX_ATTEMPTS", 3),

		MunicipalityCacheHours: getEnvInt("MUNICIPALITY_CACHE_HOURS", 24),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		Color:     getEnvBool("COMPENSA_COLOR", true),
	}
	if cfg.APIMaxAttempts < 1 {
		cfg.APIMaxAttempts = 1
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
