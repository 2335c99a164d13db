// Package config loads application configuration and initializes the
// global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Observe    ObserveConfig    `yaml:"observe" mapstructure:"observe"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`                 // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // postgres conn string
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RulesConfig points at an optional carrier rules override file.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ProjectionConfig configures the profit projector.
type ProjectionConfig struct {
	FallbackCarrier string `yaml:"fallback_carrier" mapstructure:"fallback_carrier"`
}

// ObserveConfig configures observed-fact ingestion.
type ObserveConfig struct {
	Sources       []string `yaml:"sources" mapstructure:"sources"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int     `yaml:"port" mapstructure:"port"`
	MutationRatePerSec float64 `yaml:"mutation_rate_per_sec" mapstructure:"mutation_rate_per_sec"`
	MutationBurst      int     `yaml:"mutation_burst" mapstructure:"mutation_burst"`
}

// MonitoringConfig configures risk alerting.
type MonitoringConfig struct {
	WebhookURL              string `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs       int    `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	PendingBacklogThreshold int    `yaml:"pending_backlog_threshold" mapstructure:"pending_backlog_threshold"`
	WarningWindowDays       int    `yaml:"warning_window_days" mapstructure:"warning_window_days"`
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
	v.SetEnvPrefix("MNP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "mnp.db")
	v.SetDefault("projection.fallback_carrier", "rakuten")
	v.SetDefault("observe.rate_per_second", 4.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mutation_rate_per_sec", 5.0)
	v.SetDefault("server.mutation_burst", 10)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.pending_backlog_threshold", 10)
	v.SetDefault("monitoring.warning_window_days", 14)
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
