package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config keeps runtime settings for the service.
type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reminder  ReminderConfig  `yaml:"reminder"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Identity  IdentityConfig  `yaml:"identity"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
	// RequestTimeout bounds handler work. It must end before WriteTimeout.
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"`
}

type LoggingConfig struct {
	Level  string      `yaml:"level"`
	Format string      `yaml:"format"`
	Output string      `yaml:"output"`
	File   LogFile     `yaml:"file"`
	Rotate LogRotation `yaml:"rotate"`
}

type LogFile struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`
}

type LogRotation struct {
	Enabled    bool `yaml:"enabled"`
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxAgeDays int  `yaml:"max_age_days"`
	MaxBackups int  `yaml:"max_backups"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type RateLimitConfig struct {
	Enabled           bool   `yaml:"enabled"`
	RedisAddr         string `yaml:"redis_addr"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type ReminderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Timezone string        `yaml:"timezone"`
	// PurgeAt is the daily HH:MM at which old notifications are removed.
	PurgeAt string `yaml:"purge_at"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// IdentityConfig seeds the static identity resolver until real auth exists.
type IdentityConfig struct {
	AccountID int64 `yaml:"account_id"`
	UserID    int64 `yaml:"user_id"`
}

func defaultConfig() Config {
	return Config{
		Env: EnvDevelopment,
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			GracefulTimeout: 10 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "taskhub.db?_busy_timeout=5000",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 30 * time.Second,
			SlowThreshold:   time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File:   LogFile{Dir: "logs", Filename: "taskhub"},
			Rotate: LogRotation{MaxSizeMB: 100, MaxAgeDays: 7, MaxBackups: 5},
		},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		RateLimit: RateLimitConfig{RequestsPerMinute: 120},
		Reminder:  ReminderConfig{Enabled: true, Interval: 15 * time.Minute, Timezone: "UTC", PurgeAt: "03:00"},
		Identity:  IdentityConfig{AccountID: 1, UserID: 1},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. An empty path falls back to
// TASKHUB_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("TASKHUB_CONFIG"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Env, "TASKHUB_ENV")
	setString(&cfg.HTTP.Address, "TASKHUB_HTTP_ADDR")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}
	if raw := strings.TrimSpace(os.Getenv("REDIS_ADDR")); raw != "" {
		cfg.RateLimit.RedisAddr = raw
		cfg.RateLimit.Enabled = true
	}
	if raw := strings.TrimSpace(os.Getenv("REMINDER_INTERVAL")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("REMINDER_INTERVAL: %w", err)
		}
		cfg.Reminder.Interval = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("env: unknown value %q", c.Env))
	}
	if c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("http.request_timeout must be positive"))
	} else if c.HTTP.WriteTimeout > 0 && c.HTTP.RequestTimeout >= c.HTTP.WriteTimeout {
		errs = append(errs, fmt.Errorf("http.request_timeout (%v) must be shorter than http.write_timeout (%v)",
			c.HTTP.RequestTimeout, c.HTTP.WriteTimeout))
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("database.max_open_conns must be positive"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RedisAddr == "" {
			errs = append(errs, errors.New("rate_limit.redis_addr is required when rate limiting is enabled"))
		}
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("rate_limit.requests_per_minute must be positive"))
		}
	}
	if c.Reminder.Enabled && c.Reminder.Interval <= 0 {
		errs = append(errs, errors.New("reminder.interval must be positive"))
	}
	if _, err := time.Parse("15:04", c.Reminder.PurgeAt); c.Reminder.Enabled && err != nil {
		errs = append(errs, fmt.Errorf("reminder.purge_at: expected HH:MM, got %q", c.Reminder.PurgeAt))
	}
	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("reminder.timezone: %w", err))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id is required when telegram.token is set"))
	}
	if c.Identity.AccountID <= 0 || c.Identity.UserID <= 0 {
		errs = append(errs, errors.New("identity.account_id and identity.user_id must be positive"))
	}
	return errors.Join(errs...)
}

// Production reports whether error details must be hidden from clients.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Location returns the reminder timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
