package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envFile is read from the working directory before the environment is
// consulted. Variables already set win over the file.
const envFile = ".env"

// Config holds all vCPU Quota Guardian configuration.
type Config struct {
	AWS      AWSConfig     `mapstructure:"aws"`
	Quota    QuotaConfig   `mapstructure:"quota"`
	Usage    UsageConfig   `mapstructure:"usage"`
	Catalog  CatalogConfig `mapstructure:"catalog"`
	Alerts   AlertsConfig  `mapstructure:"alerts"`
	Watch    WatchConfig   `mapstructure:"watch"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Language string        `mapstructure:"language"`
}

// AWSConfig defines how the service clients are built. Keys are never read
// from here.
type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Profile  string `mapstructure:"profile"`
	Endpoint string `mapstructure:"endpoint"`
}

// QuotaConfig selects the quota to inspect.
type QuotaConfig struct {
	ServiceCode string `mapstructure:"service_code"`
	Code        string `mapstructure:"code"`
}

// UsageConfig controls how running instances are counted.
type UsageConfig struct {
	IncludeSpot   bool `mapstructure:"include_spot"`
	MatchFamilies bool `mapstructure:"match_families"`
}

// CatalogConfig points at an optional catalog override.
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	UtilizationThresholdPct float64       `mapstructure:"utilization_threshold_pct"`
	Slack                   SlackConfig   `mapstructure:"slack"`
	Webhook                 WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// WatchConfig defines request polling.
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File, when set, receives logs instead of stderr and is rotated by size.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".vqg"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("quota.service_code", "ec2")
	v.SetDefault("quota.code", "L-1216C47A")
	v.SetDefault("usage.include_spot", false)
	v.SetDefault("usage.match_families", true)
	v.SetDefault("catalog.file", "")
	v.SetDefault("alerts.utilization_threshold_pct", 80.0)
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.webhook_url", "")
	v.SetDefault("alerts.slack.channel", "#aws-capacity")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("watch.interval", "30s")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("language", "en")

	// Environment variables
	v.SetEnvPrefix("VQG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would make every run fail.
func (c *Config) Validate() error {
	if c.Quota.ServiceCode == "" || c.Quota.Code == "" {
		return fmt.Errorf("invalid config: quota.service_code and quota.code are required")
	}
	if c.Alerts.UtilizationThresholdPct < 0 || c.Alerts.UtilizationThresholdPct > 100 {
		return fmt.Errorf("invalid config: alerts.utilization_threshold_pct must be between 0 and 100")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return fmt.Errorf("invalid config: logging.max_size_mb and logging.max_backups must not be negative")
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("invalid config: watch.interval must not be negative")
	}
	return nil
}
