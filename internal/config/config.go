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
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Benchmarks BenchmarkConfig  `yaml:"benchmarks" mapstructure:"benchmarks"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Matching   MatchingConfig   `yaml:"matching" mapstructure:"matching"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the evaluation database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BenchmarkConfig configures the benchmark catalog.
type BenchmarkConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LLMConfig configures provider access.
type LLMConfig struct {
	// DefaultProvider is used when a model name matches no known prefix.
	DefaultProvider string `yaml:"default_provider" mapstructure:"default_provider"`

	// TimeoutSecs bounds each provider request.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`

	// RequestsPerSecond rate-limits outgoing provider calls. Zero disables
	// the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// Timeout returns the configured request timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MatchingConfig configures answer grading.
type MatchingConfig struct {
	Mode             string  `yaml:"mode" mapstructure:"mode"`
	MaxDistanceRatio float64 `yaml:"max_distance_ratio" mapstructure:"max_distance_ratio"`
}

// ResilienceConfig configures provider-call retries and circuit breaking.
type ResilienceConfig struct {
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int     `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	TracingEnabled   bool    `yaml:"tracing_enabled" mapstructure:"tracing_enabled"`
	MetricsEnabled   bool    `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	BurstSize        int     `yaml:"burst_size" mapstructure:"burst_size"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from evalrun.yaml and the EVALRUN_* environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("evalrun")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVALRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "evalrun.db")
	v.SetDefault("benchmarks.dir", "benchmarks")
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("matching.mode", "exact")
	v.SetDefault("matching.max_distance_ratio", 0.2)
	v.SetDefault("resilience.max_retries", 3)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.cooldown_secs", 30)
	v.SetDefault("resilience.burst_size", 1)
	v.SetDefault("resilience.jitter_fraction", 0.25)
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
