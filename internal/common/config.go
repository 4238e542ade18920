package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Rules    RulesConfig
	Cache    CacheConfig
	LogLevel slog.Level
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// OCRConfig holds recognition-engine configuration
type OCRConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Lang        string // default "eng"
}

// VisionConfig holds the vision-escalation model configuration.
// An empty APIKey disables escalation entirely.
type VisionConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// RulesConfig points at the safety rule table document (.json or .xlsx).
// Empty path -> embedded default rule set.
type RulesConfig struct {
	Path string
}

// CacheConfig selects the OCR result cache backend.
type CacheConfig struct {
	Driver string // "off" | "sqlite" | "postgres"
	DSN    string // file path for sqlite, conninfo for postgres
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("RXSCAN_ADDR", ":8080"),
			MaxUploadBytes:  getEnvAsInt64("RXSCAN_MAX_UPLOAD_BYTES", 10<<20),
			ShutdownTimeout: getEnvAsDuration("RXSCAN_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
		},
		Vision: VisionConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		Rules: RulesConfig{
			Path: getEnv("RULES_PATH", ""),
		},
		Cache: CacheConfig{
			Driver: getEnv("CACHE_DRIVER", "off"),
			DSN:    getEnv("CACHE_DSN", ""),
		},
		LogLevel: getEnvAsLogLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "RXSCAN_ADDR is required", ErrInvalidInput)
	}
	switch c.Cache.Driver {
	case "off", "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "CACHE_DRIVER must be off|sqlite|postgres", ErrInvalidInput)
	}
	if c.Cache.Driver != "off" && c.Cache.DSN == "" {
		return NewAppError("CONFIG_ERROR", "CACHE_DSN is required when cache is enabled", ErrInvalidInput)
	}
	return nil
}
