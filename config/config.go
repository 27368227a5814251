/*
Package config loads runtime configuration for the cashbook server.

SOURCES (lowest to highest precedence):
  1. Defaults set by SetDefaults
  2. Optional YAML file (--config, or ./cashbook.yaml, $HOME/.config/cashbook/)
  3. Environment variables prefixed CASHBOOK_ (CASHBOOK_SERVER_PORT, ...)
  4. Command-line flags bound by cmd/server

KEYS:
  server.port          8080
  server.cors_origins  [*]
  storage.driver       sqlite | memory
  storage.path         cashbook.db
  storage.checkpoint   5m, full snapshot rewrite interval; 0 disables
  locale.timezone      Local, UTC, or an IANA name such as Asia/Kolkata
  locale.currency      ISO 4217 code, INR
  logging.level        debug | info | warn | error
  logging.format       console | json
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/spf13/viper"
)

const EnvPrefix = "CASHBOOK"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Locale  LocaleConfig  `mapstructure:"locale"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type StorageConfig struct {
	Driver     string        `mapstructure:"driver"`
	Path       string        `mapstructure:"path"`
	Checkpoint time.Duration `mapstructure:"checkpoint"`
}

type LocaleConfig struct {
	Timezone string `mapstructure:"timezone"`
	Currency string `mapstructure:"currency"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// LOADING
// =============================================================================

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "cashbook.db")
	v.SetDefault("storage.checkpoint", 5*time.Minute)
	v.SetDefault("locale.timezone", "Local")
	v.SetDefault("locale.currency", "INR")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads configuration into v and decodes it. An empty cfgFile searches
// the standard locations; a missing file there is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("cashbook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/cashbook")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports every invalid key at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path: required for sqlite"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Storage.Checkpoint < 0 {
		errs = append(errs, fmt.Errorf("storage.checkpoint: negative interval %s", c.Storage.Checkpoint))
	}
	if _, err := c.Locale.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Locale.MoneyCurrency(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format: invalid log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Location resolves the configured time zone. Day buckets use it.
func (l LocaleConfig) Location() (*time.Location, error) {
	switch l.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("locale.timezone: %w", err)
	}
	return loc, nil
}

// MoneyCurrency resolves the configured ISO 4217 code.
func (l LocaleConfig) MoneyCurrency() (*money.Currency, error) {
	cur := money.GetCurrency(strings.ToUpper(l.Currency))
	if cur == nil {
		return nil, fmt.Errorf("locale.currency: unknown currency %q", l.Currency)
	}
	return cur, nil
}

// =============================================================================
// LOGGING
// =============================================================================

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level: invalid log level %q", l.Level)
	}
}

// Logger builds the process logger writing to w.
func (l LoggingConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch l.Format {
	case "console", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging.format: invalid log format %q", l.Format)
	}
	return slog.New(handler), nil
}
