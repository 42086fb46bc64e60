// Package config loads choromap configuration from file and environment
// and wires the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/setorlab/choromap/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store   store.Config  `yaml:"store" mapstructure:"store"`
	IBGE    IBGEConfig    `yaml:"ibge" mapstructure:"ibge"`
	Analyze AnalyzeConfig `yaml:"analyze" mapstructure:"analyze"`
	Serve   ServeConfig   `yaml:"serve" mapstructure:"serve"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// IBGEConfig configures geometry archive fetching.
type IBGEConfig struct {
	ArchiveURL string  `yaml:"archive_url" mapstructure:"archive_url"`
	TempDir    string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// AnalyzeConfig holds default analysis parameters; flags override them.
type AnalyzeConfig struct {
	Classes     int      `yaml:"classes" mapstructure:"classes"`
	Methods     []string `yaml:"methods" mapstructure:"methods"`
	Mode        string   `yaml:"mode" mapstructure:"mode"`
	Ramp        string   `yaml:"ramp" mapstructure:"ramp"`
	RampFile    string   `yaml:"ramp_file" mapstructure:"ramp_file"`
	Locale      string   `yaml:"locale" mapstructure:"locale"`
	CapFraction float64  `yaml:"cap_fraction" mapstructure:"cap_fraction"`
	LogVariant  bool     `yaml:"log_variant" mapstructure:"log_variant"`
	Categories  []int    `yaml:"categories" mapstructure:"categories"`
}

// ServeConfig configures the viewer server.
type ServeConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("CHOROMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "choromap.db")
	v.SetDefault("ibge.temp_dir", "/tmp/choromap")
	v.SetDefault("ibge.rate_per_sec", 2.0)
	v.SetDefault("analyze.classes", 5)
	v.SetDefault("analyze.methods", []string{"equal", "quantile", "jenks"})
	v.SetDefault("analyze.mode", "density")
	v.SetDefault("analyze.ramp", "ylorrd")
	v.SetDefault("analyze.locale", "pt-BR")
	v.SetDefault("analyze.log_variant", true)
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.allowed_origins", []string{"*"})
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
