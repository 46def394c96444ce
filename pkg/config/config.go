// Package config loads the metaflame configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/metaflame/internal/calltree"
	"github.com/metaflame/internal/colorscheme"
	"github.com/metaflame/pkg/model"
)

// EnvPrefix prefixes environment overrides, e.g. METAFLAME_VIEW_BUCKETS.
const EnvPrefix = "METAFLAME"

// Config holds all configuration for the application.
type Config struct {
	View      ViewConfig      `mapstructure:"view"`
	Color     ColorConfig     `mapstructure:"color"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ViewConfig holds the initial overview and inspector settings.
type ViewConfig struct {
	Buckets         int     `mapstructure:"buckets"`
	Metric          string  `mapstructure:"metric"` // duration or value
	Across          string  `mapstructure:"across"` // time or thread
	Spacing         bool    `mapstructure:"spacing"`
	InspectorHeight float64 `mapstructure:"inspector_height"`
	MinFraction     float64 `mapstructure:"min_fraction"`
}

// ColorConfig holds the color scheme settings.
type ColorConfig struct {
	Scheme    string `mapstructure:"scheme"`
	Salt      uint32 `mapstructure:"salt"`
	ValueMode string `mapstructure:"value_mode"` // truncate or proportional
}

// StorageConfig holds object storage configuration for exported meshes.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// DatabaseConfig holds the export ledger connection.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, postgres or mysql
	Path     string `mapstructure:"path"` // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// ServerConfig holds the HTTP host settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty logs to stderr
}

// TelemetryConfig overrides the OTEL_* environment.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from configPath, or from config.yaml in the standard
// locations when configPath is empty. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/metaflame")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromReader loads configuration from content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("view.buckets", 5)
	v.SetDefault("view.metric", "duration")
	v.SetDefault("view.across", "time")
	v.SetDefault("view.spacing", false)
	v.SetDefault("view.inspector_height", 12.0)
	v.SetDefault("view.min_fraction", 0.0)

	v.SetDefault("color.scheme", "rainbow")
	v.SetDefault("color.salt", 1)
	v.SetDefault("color.value_mode", "truncate")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./exports")
	v.SetDefault("storage.scheme", "https")
	v.SetDefault("storage.domain", "myqcloud.com")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./metaflame.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.View.Buckets < 1 {
		return fmt.Errorf("view buckets must be at least 1")
	}
	if _, err := model.ParseMetric(c.View.Metric); err != nil {
		return err
	}
	if _, err := model.ParseAxis(c.View.Across); err != nil {
		return err
	}
	if c.View.InspectorHeight <= 0 {
		return fmt.Errorf("inspector height must be positive")
	}
	if c.View.MinFraction < 0 || c.View.MinFraction >= 1 {
		return fmt.Errorf("min fraction must be in [0,1): %v", c.View.MinFraction)
	}

	if _, err := colorscheme.ParseScheme(c.Color.Scheme); err != nil {
		return err
	}
	if _, err := calltree.ParseValueMode(c.Color.ValueMode); err != nil {
		return err
	}

	if c.Storage.Type != "local" && c.Storage.Type != "cos" {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite":
			if c.Database.Path == "" {
				return fmt.Errorf("sqlite database path is required")
			}
		case "postgres", "mysql":
			if c.Database.Host == "" {
				return fmt.Errorf("database host is required")
			}
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// ColorScheme returns the parsed color scheme.
func (c *Config) ColorScheme() colorscheme.Scheme {
	s, _ := colorscheme.ParseScheme(c.Color.Scheme)
	return s
}

// ValueMode returns the parsed value ratio mode.
func (c *Config) ValueMode() calltree.ValueMode {
	m, _ := calltree.ParseValueMode(c.Color.ValueMode)
	return m
}

// Metric returns the parsed view metric.
func (c *Config) Metric() model.Metric {
	m, _ := model.ParseMetric(c.View.Metric)
	return m
}

// Axis returns the parsed overview axis.
func (c *Config) Axis() model.Axis {
	a, _ := model.ParseAxis(c.View.Across)
	return a
}
