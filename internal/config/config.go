package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram bot token is required")

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	Relay    RelayConfig    `yaml:"relay"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig represents the alert history database. An empty DSN disables history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// TelegramConfig represents the chat bot configuration
type TelegramConfig struct {
	Token       string        `yaml:"token"`
	AdminIDs    []string      `yaml:"admin_ids"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	SendTimeout time.Duration `yaml:"send_timeout"`
}

// RelayConfig controls how webhook alerts are forwarded
type RelayConfig struct {
	SettingsFile    string `yaml:"settings_file"`
	RawDebug        bool   `yaml:"raw_debug"`
	RawPreviewLimit int    `yaml:"raw_preview_limit"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when neither a file nor the environment override a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			DSN: "tv-relay.db",
		},
		Telegram: TelegramConfig{
			PollTimeout: 10 * time.Second,
			SendTimeout: 10 * time.Second,
		},
		Relay: RelayConfig{
			SettingsFile:    "settings.json",
			RawDebug:        true,
			RawPreviewLimit: 800,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment overrides.
// A missing file is not an error; the defaults are used instead.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration can start the service
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return ErrMissingToken
	}
	if c.Relay.SettingsFile == "" {
		return fmt.Errorf("relay settings file is required")
	}
	if c.Relay.RawPreviewLimit <= 0 {
		return fmt.Errorf("invalid raw preview limit: %d", c.Relay.RawPreviewLimit)
	}
	return nil
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) applyEnv() error {
	c.Telegram.Token = envOrDefault("TELEGRAM_BOT_TOKEN", c.Telegram.Token)
	if raw, ok := os.LookupEnv("ADMIN_IDS"); ok {
		c.Telegram.AdminIDs = ParseAdminIDs(raw)
	} else {
		c.Telegram.AdminIDs = ParseAdminIDs(strings.Join(c.Telegram.AdminIDs, ","))
	}

	c.Server.Port = envOrDefault("PORT", c.Server.Port)
	c.Relay.SettingsFile = envOrDefault("SETTINGS_FILE", c.Relay.SettingsFile)
	c.Database.DSN = envOrDefault("DATABASE_DSN", c.Database.DSN)
	c.Log.Level = envOrDefault("LOG_LEVEL", c.Log.Level)

	var err error
	if c.Relay.RawDebug, err = envBoolOrDefault("RAW_DEBUG", c.Relay.RawDebug); err != nil {
		return err
	}
	if c.Relay.RawPreviewLimit, err = envIntOrDefault("RAW_PREVIEW_LIMIT", c.Relay.RawPreviewLimit); err != nil {
		return err
	}
	if c.Telegram.PollTimeout, err = envDurationOrDefault("POLL_TIMEOUT", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if c.Telegram.SendTimeout, err = envDurationOrDefault("SEND_TIMEOUT", c.Telegram.SendTimeout); err != nil {
		return err
	}
	return nil
}

// ParseAdminIDs splits a comma separated allow-list. Blank entries and duplicates are dropped.
func ParseAdminIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return lo.Uniq(lo.Compact(parts))
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}
	return def, nil
}

func envBoolOrDefault(key string, def bool) (bool, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}
	return def, nil
}

func envDurationOrDefault(key string, def time.Duration) (time.Duration, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := str2duration.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}
	return def, nil
}
