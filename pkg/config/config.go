package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Settings SettingsConfig
	Notify   NotifyConfig
	Log      LogConfig
	Batch    BatchConfig
	Metrics  MetricsConfig
}

type SettingsConfig struct {
	// Path is the setting.json used when none is given on the command line.
	Path string
}

type NotifyConfig struct {
	ChatworkToken     string
	ResendAPIKey      string
	Timeout           time.Duration
	ChatworkPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

type BatchConfig struct {
	ArchiveRoot string
	// Schedule is a cron expression; empty runs the batch once.
	Schedule string
	// Binary is the single-portal executable started per portal.
	Binary string
}

type MetricsConfig struct {
	TextfilePath string
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Settings: SettingsConfig{
			Path: getEnv("STOCK_SETTINGS_PATH", "setting.json"),
		},
		Notify: NotifyConfig{
			ChatworkToken:     getEnv("CHATWORK_API_TOKEN", ""),
			ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
			Timeout:           time.Duration(getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 30)) * time.Second,
			ChatworkPerMinute: getEnvAsInt("CHATWORK_RATE_PER_MINUTE", 60),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Batch: BatchConfig{
			ArchiveRoot: getEnv("STOCK_ARCHIVE_ROOT", "archive"),
			Schedule:    getEnv("STOCK_BATCH_SCHEDULE", ""),
			Binary:      getEnv("STOCKALERT_BIN", ""),
		},
		Metrics: MetricsConfig{
			TextfilePath: getEnv("METRICS_TEXTFILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
