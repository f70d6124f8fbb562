package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage drivers
const (
	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DriverClickHouse = "clickhouse"
	DriverMemory     = "memory"
)

const defaultSQLitePath = "./data/tracker.db"

// Config holds the application configuration
type Config struct {
	Env      string
	LogLevel string
	Port     string

	// Storage backend
	StorageDriver string
	DatabaseURL   string

	// Telegram bot, disabled when the token is empty
	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool
}

// BotEnabled reports whether a Telegram token was configured
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		Port:     getEnv("PORT", "8080"),
	}

	// Storage driver, USE_MOCK_DB is kept as an alias for the in-memory store
	config.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres))
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.StorageDriver = DriverMemory
	}

	switch config.StorageDriver {
	case DriverPostgres:
		config.DatabaseURL = os.Getenv("DATABASE_URL")
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
	case DriverSQLite:
		config.DatabaseURL = getEnv("DATABASE_URL", defaultSQLitePath)
	case DriverClickHouse:
		if err := loadClickHouse(config); err != nil {
			return nil, err
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: %s (expected postgres, sqlite, clickhouse or memory)", config.StorageDriver)
	}

	// Telegram Bot Token (optional, the HTTP API runs without it)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if !config.BotEnabled() {
		return config, nil
	}

	// Allowed User IDs (required with a token)
	allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
	if allowedIDsStr == "" {
		return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}

	idStrs := strings.Split(allowedIDsStr, ",")
	for _, idStr := range idStrs {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		config.AllowedUserIDs = append(config.AllowedUserIDs, id)
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	return config, nil
}

// LoadClickHouseFromEnv reads only the settings needed to reach ClickHouse,
// whatever STORAGE_DRIVER says
func LoadClickHouseFromEnv() (*Config, error) {
	config := &Config{
		Env:           getEnv("APP_ENV", "development"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		StorageDriver: DriverClickHouse,
	}
	if err := loadClickHouse(config); err != nil {
		return nil, err
	}
	return config, nil
}

func loadClickHouse(config *Config) error {
	config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if config.ClickHouseHost == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_DRIVER is clickhouse")
	}

	portStr := os.Getenv("CLICKHOUSE_PORT")
	if portStr == "" {
		config.ClickHousePort = 9000 // Default ClickHouse native port
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
		config.ClickHousePort = port
	}

	config.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
	config.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")

	// Password is optional, can be empty
	config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")

	config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
