package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "PORT",
	"STORAGE_DRIVER", "USE_MOCK_DB", "DATABASE_URL",
	"TELEGRAM_BOT_TOKEN", "ALLOWED_USER_IDS", "WEBHOOK_MODE", "WEBHOOK_URL",
	"CLICKHOUSE_HOST", "CLICKHOUSE_PORT", "CLICKHOUSE_DATABASE",
	"CLICKHOUSE_USER", "CLICKHOUSE_PASSWORD", "CLICKHOUSE_USE_TLS",
}

// clearEnv blanks every variable LoadFromEnv reads
func clearEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_MemoryDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.False(t, cfg.BotEnabled())
	assert.Empty(t, cfg.AllowedUserIDs)
}

func TestLoadFromEnv_UseMockDBAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_MOCK_DB", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
}

func TestLoadFromEnv_Postgres(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromEnv()
	assert.Error(t, err, "postgres is the default and needs DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://tracker@localhost/tracker")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://tracker@localhost/tracker", cfg.DatabaseURL)
}

func TestLoadFromEnv_SQLiteDefaultPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "SQLite")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, defaultSQLitePath, cfg.DatabaseURL)
}

func TestLoadFromEnv_ClickHouse(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "clickhouse")

	_, err := LoadFromEnv()
	assert.Error(t, err, "CLICKHOUSE_HOST is required")

	t.Setenv("CLICKHOUSE_HOST", "ch.local")
	t.Setenv("CLICKHOUSE_USE_TLS", "true")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "ch.local", cfg.ClickHouseHost)
	assert.Equal(t, 9000, cfg.ClickHousePort)
	assert.Equal(t, "default", cfg.ClickHouseDatabase)
	assert.Equal(t, "default", cfg.ClickHouseUser)
	assert.True(t, cfg.ClickHouseUseTLS)

	t.Setenv("CLICKHOUSE_PORT", "nine")
	_, err = LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnv_InvalidDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestLoadFromEnv_Telegram(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	_, err := LoadFromEnv()
	assert.Error(t, err, "ALLOWED_USER_IDS is required with a token")

	t.Setenv("ALLOWED_USER_IDS", "12345, 67890")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, []int64{12345, 67890}, cfg.AllowedUserIDs)
	assert.False(t, cfg.WebhookMode)

	t.Setenv("ALLOWED_USER_IDS", "12345,abc")
	_, err = LoadFromEnv()
	assert.Error(t, err)

	t.Setenv("ALLOWED_USER_IDS", "12345")
	t.Setenv("WEBHOOK_MODE", "true")
	_, err = LoadFromEnv()
	assert.Error(t, err, "WEBHOOK_URL is required in webhook mode")

	t.Setenv("WEBHOOK_URL", "https://example.com/telegram-webhook")
	cfg, err = LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.WebhookMode)
	assert.Equal(t, "https://example.com/telegram-webhook", cfg.WebhookURL)
}

func TestLoadClickHouseFromEnv_IgnoresStorageDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("CLICKHOUSE_HOST", "ch.local")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("CLICKHOUSE_USE_TLS", "true")

	cfg, err := LoadClickHouseFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverClickHouse, cfg.StorageDriver)
	assert.Equal(t, "ch.local", cfg.ClickHouseHost)
	assert.Equal(t, 9440, cfg.ClickHousePort)
	assert.Equal(t, "default", cfg.ClickHouseDatabase)
	assert.True(t, cfg.ClickHouseUseTLS)
	assert.Empty(t, cfg.DatabaseURL, "postgres settings are not required")
}

func TestLoadClickHouseFromEnv_MissingHost(t *testing.T) {
	clearEnv(t)

	_, err := LoadClickHouseFromEnv()
	assert.Error(t, err)
}
