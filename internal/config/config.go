package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "ZABBIX_CHATOPS"

// Renderer modes.
const (
	RendererChart  = "chart"
	RendererScript = "script"
	RendererNone   = "none"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	DB       DBConfig       `mapstructure:"db"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string `mapstructure:"port"`
	WebhookToken    string `mapstructure:"webhook_token"`
	AllowedOrigins  string `mapstructure:"allowed_origins"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // in seconds
}

type TelegramConfig struct {
	BotToken       string  `mapstructure:"bot_token"`
	AllowedChatIDs []int64 `mapstructure:"allowed_chat_ids"`
	PollTimeout    int     `mapstructure:"poll_timeout"` // in seconds
	APIURL         string  `mapstructure:"api_url"`
	// UseMock logs outbound messages instead of calling Telegram.
	UseMock bool `mapstructure:"use_mock"`
}

type RendererConfig struct {
	Mode                 string `mapstructure:"mode"`
	Interpreter          string `mapstructure:"interpreter"`
	ScriptPath           string `mapstructure:"script_path"`
	ResolutionScriptPath string `mapstructure:"resolution_script_path"`
	GraphsDir            string `mapstructure:"graphs_dir"`
	TimeoutSeconds       int    `mapstructure:"timeout_seconds"`
}

type AlertsConfig struct {
	CatalogPath  string `mapstructure:"catalog_path"`
	Timezone     string `mapstructure:"timezone"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type DBConfig struct {
	DSN            string `mapstructure:"dsn"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type AuditConfig struct {
	RetentionHours  int `mapstructure:"retention_hours"`
	CleanupInterval int `mapstructure:"cleanup_interval"` // in seconds
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.webhook_token", "")
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.allowed_chat_ids", []int64{})
	v.SetDefault("telegram.poll_timeout", 10)
	v.SetDefault("telegram.api_url", "")
	v.SetDefault("telegram.use_mock", false)

	v.SetDefault("renderer.mode", RendererChart)
	v.SetDefault("renderer.interpreter", "python3")
	v.SetDefault("renderer.script_path", "scripts/graph_generator.py")
	v.SetDefault("renderer.resolution_script_path", "scripts/resolution_graph_generator.py")
	v.SetDefault("renderer.graphs_dir", "graphs")
	v.SetDefault("renderer.timeout_seconds", 30)

	v.SetDefault("alerts.catalog_path", "")
	v.SetDefault("alerts.timezone", "America/Sao_Paulo")
	v.SetDefault("alerts.history_limit", 5)

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.migrations_path", "file://migrations")

	v.SetDefault("audit.retention_hours", 168)
	v.SetDefault("audit.cleanup_interval", 3600)

	v.SetDefault("log.level", "info")
}

// Load reads the configuration file at path, when present, and applies
// environment overrides (ZABBIX_CHATOPS_SERVER_PORT, TELEGRAM_BOT_TOKEN, PORT...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.bot_token", envPrefix+"_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("log.level", envPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logrus.Warnf("Config file %s not found, using defaults and environment", path)
		} else {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

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
	switch c.Renderer.Mode {
	case RendererChart, RendererScript, RendererNone:
	default:
		return fmt.Errorf("unknown renderer mode %q", c.Renderer.Mode)
	}
	if c.Renderer.Mode == RendererScript && c.Renderer.ScriptPath == "" {
		return errors.New("renderer.script_path is required in script mode")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves alerts.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Alerts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid alerts.timezone %q: %w", c.Alerts.Timezone, err)
	}
	return loc, nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Renderer.TimeoutSeconds) * time.Second
}

func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Telegram.PollTimeout) * time.Second
}

func (c *Config) AuditRetention() time.Duration {
	return time.Duration(c.Audit.RetentionHours) * time.Hour
}

func (c *Config) AuditCleanupInterval() time.Duration {
	return time.Duration(c.Audit.CleanupInterval) * time.Second
}
