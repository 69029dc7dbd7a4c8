// Package config loads client configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds client configuration.
type Config struct {
	// APIURL is the backend base URL.
	APIURL string `mapstructure:"NOTES_API_URL"`
	// Timeout is the per-request timeout (e.g. "15s").
	Timeout string `mapstructure:"NOTES_TIMEOUT"`
	// Store selects where tokens and the theme are persisted.
	Store string `mapstructure:"NOTES_STORE"`
	// StateFile is the file store path; empty means the user config dir.
	StateFile string `mapstructure:"NOTES_STATE_FILE"`
	// StatePassphrase seals the file store when set.
	StatePassphrase string `mapstructure:"NOTES_STATE_PASSPHRASE"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	RedisURL        string `mapstructure:"REDIS_URL"`
	// ListenAddr is the loopback login listener address.
	ListenAddr string `mapstructure:"NOTES_LISTEN_ADDR"`
	// BotName is the Telegram bot used by the login widget.
	BotName string `mapstructure:"TELEGRAM_BOT_NAME"`
	// InitData is a WebApp init-data blob handed over by a launcher.
	InitData string `mapstructure:"TELEGRAM_INIT_DATA"`
	// AliasInitData is the same blob as exported by launchers that use the
	// legacy WebApp variable. InitData wins when both are set.
	AliasInitData string `mapstructure:"TELEGRAM_WEBAPP_INIT_DATA"`
	// DefaultTheme applies while no theme is persisted.
	DefaultTheme string `mapstructure:"NOTES_DEFAULT_THEME"`
	// Metrics exposes /metrics on the login listener.
	Metrics  bool   `mapstructure:"NOTES_METRICS"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is "development" or "production"; it picks the log encoder.
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("NOTES_API_URL", "https://api.smartestnotes.com")
	v.SetDefault("NOTES_TIMEOUT", "15s")
	v.SetDefault("NOTES_STORE", StoreFile)
	v.SetDefault("NOTES_STATE_FILE", "")
	v.SetDefault("NOTES_STATE_PASSPHRASE", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("NOTES_LISTEN_ADDR", "127.0.0.1:8765")
	v.SetDefault("TELEGRAM_BOT_NAME", "notes20bot")
	v.SetDefault("TELEGRAM_INIT_DATA", "")
	v.SetDefault("TELEGRAM_WEBAPP_INIT_DATA", "")
	v.SetDefault("NOTES_DEFAULT_THEME", "light")
	v.SetDefault("NOTES_METRICS", false)
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("APP_ENV", "production")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: NOTES_API_URL must be an absolute URL, got %q", c.APIURL)
	}

	switch c.Store {
	case StoreFile, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when NOTES_STORE=postgres")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL must be set when NOTES_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unknown NOTES_STORE %q", c.Store)
	}

	if c.DefaultTheme != "light" && c.DefaultTheme != "dark" {
		return fmt.Errorf("config: NOTES_DEFAULT_THEME must be light or dark, got %q", c.DefaultTheme)
	}
	return nil
}

// RequestTimeout parses Timeout. Returns 15s if unset or invalid.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Development reports whether APP_ENV selects development logging.
func (c *Config) Development() bool {
	return c.Env == "development"
}
