package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int `yaml:"port"`
		RateLimitRPS int `yaml:"rate_limit_rps"`
		RateBurst    int `yaml:"rate_burst"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Auth struct {
		// HtpasswdPath points at the argon2id credential file guarding the
		// admin endpoints.
		HtpasswdPath string `yaml:"htpasswd_path"`
	} `yaml:"auth"`

	Notify struct {
		// Mode selects the outbound channel: "email", "telegram" or "off".
		Mode string `yaml:"mode"`

		Email struct {
			APIKey string `yaml:"api_key"`
			From   string `yaml:"from"`
			To     string `yaml:"to"`
		} `yaml:"email"`

		Telegram struct {
			BotToken string `yaml:"bot_token"`
			ChatID   int64  `yaml:"chat_id"`
		} `yaml:"telegram"`

		Reminder struct {
			Enabled bool `yaml:"enabled"`
			Hour    int  `yaml:"hour"`
			Minute  int  `yaml:"minute"`
		} `yaml:"reminder"`
	} `yaml:"notify"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		// DeadlineHour is the hour on the day before service after which
		// new bookings for that date are rejected, in Timezone.
		DeadlineHour int    `yaml:"deadline_hour"`
		Timezone     string `yaml:"timezone"`
		CacheTTLSec  int    `yaml:"cache_ttl_seconds"`
	} `yaml:"booking"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a config with all defaults applied and no file read.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = 5
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 10
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/tonnenheld.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Backup.IntervalHours == 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 14
	}
	if c.Notify.Mode == "" {
		c.Notify.Mode = "off"
	}
	if c.Booking.DeadlineHour == 0 {
		c.Booking.DeadlineHour = 18
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Europe/Berlin"
	}
	if c.Booking.CacheTTLSec == 0 {
		c.Booking.CacheTTLSec = 300
	}
}

// CacheTTL is the lifetime of cached schedule lookups.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Booking.CacheTTLSec) * time.Second
}

// BackupInterval is the pause between database backups.
func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
