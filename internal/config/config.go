package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mcpguard/jsonapi-go/pkg/jsonapi"
	"github.com/spf13/viper"
)

const envPrefix = "JSONAPI"

type Config struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Salt     string        `mapstructure:"salt"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Listen   string        `mapstructure:"listen"` // address for the serve command
	Guard    GuardConfig   `mapstructure:"guard"`
	Log      LogConfig     `mapstructure:"log"`
}

type GuardConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Rules   string `mapstructure:"rules"` // gitleaks TOML file, empty for built-in rules
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// Load reads configuration from defaults, the optional file at path and
// JSONAPI_* environment variables, in increasing priority. Flags bound to v
// beforehand win over all of them.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("host", "localhost")
	v.SetDefault("port", jsonapi.DefaultPort)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("salt", "")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("listen", fmt.Sprintf(":%d", jsonapi.DefaultPort))
	v.SetDefault("guard.enabled", false)
	v.SetDefault("guard.rules", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ClientConfig returns the subset the API client needs.
func (c *Config) ClientConfig() jsonapi.Config {
	return jsonapi.Config{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		Salt:     c.Salt,
	}
}

// NewLogger builds a slog logger writing to w at the configured level and
// format. Unknown levels fall back to info, unknown formats to text.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}

	var handler slog.Handler
	switch strings.ToLower(l.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
