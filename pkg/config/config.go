package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	CORS     CORSConfig
	Provider ProviderConfig
	Audit    AuditConfig
	Cleanup  CleanupConfig
	Export   ExportConfig
	Wipe     WipeConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// ProviderConfig points at the upstream email-sending service.
type ProviderConfig struct {
	BaseURL            string
	RequestTimeout     time.Duration
	BeforeFetchTimeout time.Duration
}

// AuditConfig tunes the recorder and its background queue.
type AuditConfig struct {
	QueueWorkers         int
	QueueBuffer          int
	DefaultRetentionDays int
	SettingsCacheTTL     time.Duration
}

// CleanupConfig gates the cron-driven retention sweep.
type CleanupConfig struct {
	Enabled  bool
	Schedule string
}

// ExportConfig caps audit log export size.
type ExportConfig struct {
	MaxRows int
}

// WipeConfig governs clear-all confirmation tokens.
type WipeConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Provider = ProviderConfig{
		BaseURL:            v.GetString("PROVIDER_BASE_URL"),
		RequestTimeout:     parseDuration(v.GetString("PROVIDER_REQUEST_TIMEOUT"), 15*time.Second),
		BeforeFetchTimeout: parseDuration(v.GetString("PROVIDER_BEFORE_FETCH_TIMEOUT"), 3*time.Second),
	}

	cfg.Audit = AuditConfig{
		QueueWorkers:         v.GetInt("AUDIT_QUEUE_WORKERS"),
		QueueBuffer:          v.GetInt("AUDIT_QUEUE_BUFFER"),
		DefaultRetentionDays: v.GetInt("AUDIT_DEFAULT_RETENTION_DAYS"),
		SettingsCacheTTL:     parseDuration(v.GetString("AUDIT_SETTINGS_CACHE_TTL"), time.Minute),
	}

	cfg.Cleanup = CleanupConfig{
		Enabled:  v.GetBool("ENABLE_RETENTION_SWEEP"),
		Schedule: v.GetString("RETENTION_SWEEP_SCHEDULE"),
	}

	cfg.Export = ExportConfig{
		MaxRows: v.GetInt("EXPORT_MAX_ROWS"),
	}

	cfg.Wipe = WipeConfig{
		TokenSecret: v.GetString("WIPE_TOKEN_SECRET"),
		TokenTTL:    parseDuration(v.GetString("WIPE_TOKEN_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stencil")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("PROVIDER_BASE_URL", "https://api.mailsender.example")
	v.SetDefault("PROVIDER_REQUEST_TIMEOUT", "15s")
	v.SetDefault("PROVIDER_BEFORE_FETCH_TIMEOUT", "3s")

	v.SetDefault("AUDIT_QUEUE_WORKERS", 2)
	v.SetDefault("AUDIT_QUEUE_BUFFER", 64)
	v.SetDefault("AUDIT_DEFAULT_RETENTION_DAYS", 30)
	v.SetDefault("AUDIT_SETTINGS_CACHE_TTL", "1m")

	v.SetDefault("ENABLE_RETENTION_SWEEP", false)
	v.SetDefault("RETENTION_SWEEP_SCHEDULE", "0 3 * * *")

	v.SetDefault("EXPORT_MAX_ROWS", 5000)

	v.SetDefault("WIPE_TOKEN_SECRET", "dev_wipe_secret")
	v.SetDefault("WIPE_TOKEN_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
