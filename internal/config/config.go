package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Tracker      TrackerConfig      `mapstructure:"tracker"`
	Achievements AchievementsConfig `mapstructure:"achievements"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Display      DisplayConfig      `mapstructure:"display"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "bolt" or "redis"
	Path  string      `mapstructure:"path"` // bolt database file
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines the Redis connection used by the redis backend
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
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TrackerConfig defines session ledger behaviour
type TrackerConfig struct {
	DefaultTitle          string `mapstructure:"default_title"`
	RolloverCheckInterval string `mapstructure:"rollover_check_interval"`
	Retention             string `mapstructure:"retention"` // "all" or "month"
	ViewCacheSize         int    `mapstructure:"view_cache_size"`
	Sound                 bool   `mapstructure:"sound"`
}

// AchievementsConfig defines user-defined achievement rules
type AchievementsConfig struct {
	RulesDir string `mapstructure:"rules_dir"` // empty disables rule loading
}

// MetricsConfig defines the prometheus textfile export
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"` // empty disables export
}

// DisplayConfig defines terminal rendering options
type DisplayConfig struct {
	Currency     string `mapstructure:"currency"`
	DecimalComma bool   `mapstructure:"decimal_comma"`
	Color        bool   `mapstructure:"color"`
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(userDir(os.UserConfigDir), "habitledger", "config.yaml")
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	// Configure viper
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("HABITLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// isNotFound reports whether err means the config file does not exist.
// SetConfigFile bypasses viper's search, so a missing file surfaces as a
// plain fs error rather than ConfigFileNotFoundError.
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", filepath.Join(userDir(os.UserCacheDir), "habitledger", "habitledger.db"))
	v.SetDefault("storage.redis.host", "127.0.0.1")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 2)
	v.SetDefault("storage.redis.min_idle_conns", 0)
	v.SetDefault("storage.redis.dial_timeout", "2s")
	v.SetDefault("storage.redis.read_timeout", "1s")
	v.SetDefault("storage.redis.write_timeout", "1s")
	v.SetDefault("storage.redis.key_prefix", "habitledger")

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	// Tracker defaults
	v.SetDefault("tracker.default_title", "Reward Tracker")
	v.SetDefault("tracker.rollover_check_interval", "5m")
	v.SetDefault("tracker.retention", "all")
	v.SetDefault("tracker.view_cache_size", 12)
	v.SetDefault("tracker.sound", true)

	// Achievement defaults
	v.SetDefault("achievements.rules_dir", "")

	// Metrics defaults
	v.SetDefault("metrics.textfile_path", "")

	// Display defaults
	v.SetDefault("display.currency", "€")
	v.SetDefault("display.decimal_comma", true)
	v.SetDefault("display.color", true)
}

// validate validates the configuration
func validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "":
		cfg.Storage.Type = "bolt"
	case "bolt", "redis":
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "bolt" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if cfg.Storage.Type == "redis" {
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
		if cfg.Storage.Redis.Port < 0 || cfg.Storage.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis port: %d", cfg.Storage.Redis.Port)
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	switch cfg.Tracker.Retention {
	case "all", "month":
	default:
		return fmt.Errorf("invalid retention: %s (must be all or month)", cfg.Tracker.Retention)
	}

	d, err := time.ParseDuration(cfg.Tracker.RolloverCheckInterval)
	if err != nil {
		return fmt.Errorf("invalid rollover_check_interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("rollover_check_interval must be positive")
	}

	if cfg.Tracker.ViewCacheSize <= 0 {
		return fmt.Errorf("view_cache_size must be positive")
	}

	if strings.TrimSpace(cfg.Tracker.DefaultTitle) == "" {
		return fmt.Errorf("default_title must not be empty")
	}

	return nil
}

func userDir(fn func() (string, error)) string {
	dir, err := fn()
	if err != nil {
		return "."
	}
	return dir
}
