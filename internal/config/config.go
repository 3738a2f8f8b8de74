package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config keeps runtime settings for the server, the bot and the CLI.
type Config struct {
	HTTPAddr string

	StorageBackend string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	TelegramToken   string
	TelegramChatIDs []int64
	DigestTime      string

	BackupDir      string
	BackupInterval time.Duration

	LogLevel string
	LogJSON  bool

	SeedDefaultCategories bool
}

// Load reads .env, the environment and, when TASKFLOW_CONFIG names one, a YAML
// file. Environment variables win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("TASKFLOW_CONFIG")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("storage_backend", BackendSQLite)
	v.SetDefault("database_url", "taskflow.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("digest_time", "08:00")
	v.SetDefault("backup_dir", "backups")
	v.SetDefault("backup_interval_hours", "24")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("seed_default_categories", true)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:              strings.TrimSpace(v.GetString("http_addr")),
		StorageBackend:        strings.ToLower(strings.TrimSpace(v.GetString("storage_backend"))),
		DatabaseURL:           strings.TrimSpace(v.GetString("database_url")),
		RedisAddr:             strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:         v.GetString("redis_password"),
		RedisDB:               v.GetInt("redis_db"),
		TelegramToken:         strings.TrimSpace(v.GetString("telegram_token")),
		DigestTime:            strings.TrimSpace(v.GetString("digest_time")),
		BackupDir:             strings.TrimSpace(v.GetString("backup_dir")),
		LogLevel:              strings.TrimSpace(v.GetString("log_level")),
		LogJSON:               v.GetBool("log_json"),
		SeedDefaultCategories: v.GetBool("seed_default_categories"),
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return cfg, fmt.Errorf("STORAGE_BACKEND must be memory, sqlite or redis, got %q", cfg.StorageBackend)
	}

	interval, err := parseInterval(strings.TrimSpace(v.GetString("backup_interval_hours")))
	if err != nil {
		return cfg, err
	}
	cfg.BackupInterval = interval

	ids, err := parseChatIDs(v.GetString("telegram_chat_ids"))
	if err != nil {
		return cfg, err
	}
	cfg.TelegramChatIDs = ids

	return cfg, nil
}

// parseInterval reads a number of hours. Zero disables the job.
func parseInterval(raw string) (time.Duration, error) {
	if raw == "" || raw == "0" {
		return 0, nil
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("BACKUP_INTERVAL_HOURS: invalid value %q", raw)
	}
	return hours, nil
}

// parseChatIDs reads a comma-separated list of Telegram chat ids.
func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_IDS: invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
