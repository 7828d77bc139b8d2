package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Dataset  DatasetConfig  `yaml:"dataset" mapstructure:"dataset"`
	Postcode PostcodeConfig `yaml:"postcode" mapstructure:"postcode"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// DatasetConfig selects where the reference dataset comes from.
// Source is one of "embedded", "dir", or "http".
type DatasetConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	Dir    string `yaml:"dir" mapstructure:"dir"`
	URL    string `yaml:"url" mapstructure:"url"`
}

// PostcodeConfig configures the postcode lookup client.
type PostcodeConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WYTG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("dataset.source", "embedded")
	v.SetDefault("postcode.base_url", "https://api.postcodes.io")
	v.SetDefault("postcode.timeout_secs", 8)
	v.SetDefault("postcode.rate_per_sec", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks cross-field constraints before a command runs.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}

	switch c.Dataset.Source {
	case "embedded":
	case "dir":
		if c.Dataset.Dir == "" {
			problems = append(problems, "dataset.dir is required when dataset.source is dir")
		}
	case "http":
		if c.Dataset.URL == "" {
			problems = append(problems, "dataset.url is required when dataset.source is http")
		}
	default:
		problems = append(problems, fmt.Sprintf("dataset.source must be embedded, dir or http (got %q)", c.Dataset.Source))
	}

	if c.Postcode.TimeoutSecs <= 0 {
		problems = append(problems, "postcode.timeout_secs must be > 0")
	}
	if c.Postcode.RatePerSec <= 0 {
		problems = append(problems, "postcode.rate_per_sec must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
