package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartspend/cashbook-engine/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "cashbook.db", cfg.Storage.Path)
	assert.Equal(t, 5*time.Minute, cfg.Storage.Checkpoint)
	assert.Equal(t, "INR", cfg.Locale.Currency)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	// GIVEN: A config file and an env override for the port
	dir := t.TempDir()
	path := filepath.Join(dir, "cashbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
storage:
  driver: memory
  checkpoint: 30s
locale:
  timezone: Asia/Kolkata
  currency: inr
logging:
  format: json
`), 0o600))
	t.Setenv("CASHBOOK_SERVER_PORT", "7070")

	// WHEN: Loading
	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)

	// THEN: Env beats the file, the file beats defaults
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Storage.Checkpoint)
	assert.Equal(t, "json", cfg.Logging.Format)

	loc, err := cfg.Locale.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	cur, err := cfg.Locale.MoneyCurrency()
	require.NoError(t, err)
	assert.Equal(t, "INR", cur.Code)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Driver: "sqlite", Path: "cashbook.db"},
		Locale:  config.LocaleConfig{Timezone: "UTC", Currency: "INR"},
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown driver", func(c *config.Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"sqlite without path", func(c *config.Config) { c.Storage.Path = "" }, "storage.path"},
		{"negative checkpoint", func(c *config.Config) { c.Storage.Checkpoint = -time.Second }, "storage.checkpoint"},
		{"bad timezone", func(c *config.Config) { c.Locale.Timezone = "Mars/Olympus" }, "locale.timezone"},
		{"unknown currency", func(c *config.Config) { c.Locale.Currency = "XYZ" }, "locale.currency"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLocation_LocalAliases(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		loc, err := config.LocaleConfig{Timezone: tz}.Location()
		require.NoError(t, err)
		assert.Equal(t, time.Local, loc)
	}
}

func TestLoggingConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := config.LoggingConfig{Level: "warn", Format: "json"}.Logger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "key", "k")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	level, err := config.LoggingConfig{Level: "debug"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}
