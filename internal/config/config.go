package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goodtune/appwatch/internal/storage"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Display  DisplayConfig  `mapstructure:"display"`
}

// MonitorConfig defines the threshold monitor behavior
type MonitorConfig struct {
	PollInterval   string `mapstructure:"poll_interval"`
	HourlyLookback string `mapstructure:"hourly_lookback"`
}

// TrackingConfig defines how usage is attributed and filtered
type TrackingConfig struct {
	HostAppID         string   `mapstructure:"host_app_id"`
	EventJournal      string   `mapstructure:"event_journal"`
	AppIndex          string   `mapstructure:"app_index"`
	MetadataCacheSize int      `mapstructure:"metadata_cache_size"`
	AllowList         []string `mapstructure:"allow_list"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the metrics endpoint
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
}

// NotifyConfig defines notification delivery
type NotifyConfig struct {
	Channel    string `mapstructure:"channel"`
	Sink       string `mapstructure:"sink"`
	MinRealert string `mapstructure:"min_realert"`
}

// DisplayConfig defines presentation-path polling
type DisplayConfig struct {
	RefreshInterval string `mapstructure:"refresh_interval"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("APPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Monitor defaults
	v.SetDefault("monitor.poll_interval", "5s")
	v.SetDefault("monitor.hourly_lookback", "1h")

	// Tracking defaults
	v.SetDefault("tracking.host_app_id", "com.goodtune.appwatch")
	v.SetDefault("tracking.event_journal", "/var/lib/appwatch/events.ndjson")
	v.SetDefault("tracking.app_index", "/var/lib/appwatch/apps.json")
	v.SetDefault("tracking.metadata_cache_size", 512)
	v.SetDefault("tracking.allow_list", []string{})

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "/var/lib/appwatch/appwatch.bolt")
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9216)
	v.SetDefault("metrics.bind_address", "127.0.0.1")

	// Notify defaults
	v.SetDefault("notify.channel", "usage-limit")
	v.SetDefault("notify.sink", "desktop")
	v.SetDefault("notify.min_realert", "0s")

	// Display defaults
	v.SetDefault("display.refresh_interval", "50s")
}

// validate validates the configuration
func validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "":
		cfg.Storage.Type = "bolt"
	case "bolt", "redis":
	default:
		return fmt.Errorf("invalid storage type: %s (must be bolt or redis)", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "bolt" {
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		if err := storage.EnsureDir(filepath.Dir(cfg.Storage.Path)); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	if cfg.Tracking.EventJournal == "" {
		return fmt.Errorf("tracking event_journal path is required")
	}

	if cfg.Metrics.Enabled && (cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	switch cfg.Notify.Sink {
	case "desktop", "log":
	default:
		return fmt.Errorf("invalid notify sink: %s (must be desktop or log)", cfg.Notify.Sink)
	}

	return nil
}
