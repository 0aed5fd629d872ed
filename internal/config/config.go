// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ccrestaurant/lead-intel/internal/enrich"
	"github.com/ccrestaurant/lead-intel/internal/store"
	"github.com/ccrestaurant/lead-intel/pkg/assessor"
	"github.com/ccrestaurant/lead-intel/pkg/license"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig     `yaml:"store" mapstructure:"store"`
	Jina     JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Assessor assessor.Config `yaml:"assessor" mapstructure:"assessor"`
	License  license.Config  `yaml:"license" mapstructure:"license"`
	Scrape   ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Enrich   enrich.Options  `yaml:"enrich" mapstructure:"enrich"`
	Patterns PatternsConfig  `yaml:"patterns" mapstructure:"patterns"`
	Batch    BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig    `yaml:"server" mapstructure:"server"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string  `yaml:"search_base_url" mapstructure:"search_base_url"`
	RPS           float64 `yaml:"rps" mapstructure:"rps"`
}

// ScrapeConfig configures website scraping.
type ScrapeConfig struct {
	ExcludePaths  []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	MaxConcurrent int      `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// PatternsConfig points at an optional pattern-set override file.
type PatternsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures batch enrichment.
type BatchConfig struct {
	MaxConcurrentLeads int `yaml:"max_concurrent_leads" mapstructure:"max_concurrent_leads"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_leads", 5)
	v.SetDefault("scrape.max_concurrent", 4)
	v.SetDefault("scrape.exclude_paths", []string{"/cart/*", "/checkout/*", "/privacy*", "/terms*", "/careers/*", "/gift-cards/*", "/*.pdf"})
	v.SetDefault("enrich.max_rounds", enrich.DefaultMaxRounds)
	v.SetDefault("enrich.threshold", enrich.DefaultThreshold)
	v.SetDefault("enrich.auto_apply", enrich.DefaultAutoApply)
	v.SetDefault("enrich.source_timeout", 15*time.Second)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.rps", 2)
	v.SetDefault("assessor.rps", 2)
	v.SetDefault("license.rps", 2)

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
