package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TASKFLOW_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "taskflow.db", cfg.DatabaseURL)
	assert.Equal(t, "08:00", cfg.DigestTime)
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval)
	assert.True(t, cfg.SeedDefaultCategories)
	assert.Empty(t, cfg.TelegramChatIDs)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TASKFLOW_CONFIG", "")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TELEGRAM_CHAT_IDS", "100, -200 ,")
	t.Setenv("BACKUP_INTERVAL_HOURS", "0")
	t.Setenv("SEED_DEFAULT_CATEGORIES", "false")
	t.Setenv("LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []int64{100, -200}, cfg.TelegramChatIDs)
	assert.Zero(t, cfg.BackupInterval)
	assert.False(t, cfg.SeedDefaultCategories)
	assert.True(t, cfg.LogJSON)
}

func TestLoadYAMLFileUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_backend: memory\ndigest_time: \"07:30\"\nhttp_addr: \":7000\"\n"), 0o600))
	t.Setenv("TASKFLOW_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":7100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "07:30", cfg.DigestTime)
	assert.Equal(t, ":7100", cfg.HTTPAddr, "environment wins over the file")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TASKFLOW_CONFIG", "")

	t.Setenv("STORAGE_BACKEND", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("TELEGRAM_CHAT_IDS", "abc")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("TELEGRAM_CHAT_IDS", "")
	t.Setenv("BACKUP_INTERVAL_HOURS", "often")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("BACKUP_INTERVAL_HOURS", "24")
	t.Setenv("TASKFLOW_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
