// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Radar    RadarConfig    `mapstructure:"radar"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Export   ExportConfig   `mapstructure:"export"`
	Health   HealthConfig   `mapstructure:"health"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FeedConfig holds match feed configuration.
type FeedConfig struct {
	Mode           string        `mapstructure:"mode"` // "live" or "demo"
	FeedURL        string        `mapstructure:"feed_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	Limit          int           `mapstructure:"limit"`
	Leagues        []string      `mapstructure:"leagues"`
	MinuteMin      int           `mapstructure:"minute_min"`
	MinuteMax      int           `mapstructure:"minute_max"`
}

// RadarConfig holds scoring and decision thresholds.
type RadarConfig struct {
	EnterThreshold   int     `mapstructure:"enter_threshold"`
	DisplayThreshold int     `mapstructure:"display_threshold"`
	OddsFloor        float64 `mapstructure:"odds_floor"`
	MaxGames         int     `mapstructure:"max_games"`
	BaselineContext  float64 `mapstructure:"baseline_context"`
	BaselineForm     float64 `mapstructure:"baseline_form"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path"`
	MaxMatches int    `mapstructure:"max_matches"`
}

// ExportConfig holds CSV export configuration.
type ExportConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	FilePath string `mapstructure:"file_path"`
}

// HealthConfig holds the health/metrics HTTP surface configuration.
type HealthConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("EV_RADAR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.mode", "demo")
	v.SetDefault("feed.feed_url", "")
	v.SetDefault("feed.poll_interval", "60s")
	v.SetDefault("feed.timeout", "10s")
	v.SetDefault("feed.max_retries", 3)
	v.SetDefault("feed.retry_delay_base", "1s")
	v.SetDefault("feed.limit", 50)
	v.SetDefault("feed.leagues", []string{})
	v.SetDefault("feed.minute_min", 45)
	v.SetDefault("feed.minute_max", 80)

	v.SetDefault("radar.enter_threshold", 65)
	v.SetDefault("radar.display_threshold", 55)
	v.SetDefault("radar.odds_floor", 1.50)
	v.SetDefault("radar.max_games", 10)
	v.SetDefault("radar.baseline_context", 6.0)
	v.SetDefault("radar.baseline_form", 4.0)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/evradar.db")
	v.SetDefault("storage.max_matches", 1000)

	v.SetDefault("export.enabled", true)
	v.SetDefault("export.file_path", "./data/scans.csv")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.listen_addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid. Invalid
// configuration is a startup-fatal error, never a runtime one.
func (c *Config) Validate() error {
	switch c.Feed.Mode {
	case "live":
		if c.Feed.FeedURL == "" {
			return fmt.Errorf("feed.feed_url is required in live mode")
		}
	case "demo":
	default:
		return fmt.Errorf("feed.mode must be one of: live, demo")
	}
	if c.Feed.PollInterval < 10*time.Second {
		return fmt.Errorf("feed.poll_interval must be at least 10 seconds")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive")
	}
	if c.Feed.Limit < 1 || c.Feed.Limit > 500 {
		return fmt.Errorf("feed.limit must be between 1 and 500")
	}
	if c.Feed.MinuteMin < 0 || c.Feed.MinuteMax > 130 || c.Feed.MinuteMin > c.Feed.MinuteMax {
		return fmt.Errorf("feed minute window must satisfy 0 <= minute_min <= minute_max <= 130")
	}

	if c.Radar.DisplayThreshold < 0 {
		return fmt.Errorf("radar.display_threshold must not be negative")
	}
	if c.Radar.EnterThreshold > 100 {
		return fmt.Errorf("radar.enter_threshold must be at most 100")
	}
	if c.Radar.DisplayThreshold > c.Radar.EnterThreshold {
		return fmt.Errorf("radar.display_threshold must not exceed radar.enter_threshold")
	}
	if c.Radar.OddsFloor < 1.0 {
		return fmt.Errorf("radar.odds_floor must be at least 1.0")
	}
	if c.Radar.MaxGames < 1 {
		return fmt.Errorf("radar.max_games must be at least 1")
	}
	if c.Radar.BaselineContext < 0 || c.Radar.BaselineForm < 0 {
		return fmt.Errorf("radar baselines must not be negative")
	}
	if c.Radar.BaselineContext+c.Radar.BaselineForm > 20 {
		return fmt.Errorf("radar baselines must sum to at most 20")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxMatches < 1 {
		return fmt.Errorf("storage.max_matches must be at least 1")
	}

	if c.Export.Enabled && c.Export.FilePath == "" {
		return fmt.Errorf("export.file_path is required when export is enabled")
	}

	if c.Health.Enabled && c.Health.ListenAddr == "" {
		return fmt.Errorf("health.listen_addr is required when health is enabled")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
