package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	DBPath    string
	LogLevel  slog.Level
	LogFormat string

	BlobDriver  string
	BlobFSRoot  string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Load reads configuration from environment variables, applying defaults
// and validating driver choices. A .env file in the working directory is
// loaded first; real environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:     getEnv("API_PORT", "9000"),
		DBPath:      getEnv("DB_PATH", "./data/sheetstand.db"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		BlobDriver:  getEnv("BLOB_DRIVER", "fs"),
		BlobFSRoot:  getEnv("BLOB_FS_ROOT", "./data/content"),
		S3Bucket:    getEnv("BLOB_S3_BUCKET", ""),
		S3Region:    getEnv("BLOB_S3_REGION", ""),
		S3Endpoint:  getEnv("BLOB_S3_ENDPOINT", ""),
		S3PathStyle: strings.EqualFold(getEnv("BLOB_S3_PATH_STYLE", "false"), "true"),
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	switch cfg.BlobDriver {
	case "fs", "memory":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("BLOB_DRIVER must be one of fs, s3, memory")
	}

	// Create the data directory up front so the database file can be made.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
