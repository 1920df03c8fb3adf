// Package config assembles the pipeline's root configuration: grouped
// sub-structs with sensible defaults, functional-option overrides, and
// an optional YAML file load — the same three-layer precedence
// (defaults, then file/env, then functional options) as the teacher's
// core.Config/core.NewConfig, generalized from one flat agent config to
// the pipeline's own component groups.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cogpipe/core/pkg/command"
	"github.com/cogpipe/core/pkg/safety"
)

// LoggingConfig controls the injected Logger's verbosity and rendering.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ExecutorConfig configures the Tool Executor (spec §4.9). Durations are
// stored as parseable strings so the struct round-trips through YAML the
// way the teacher's env-driven config does through `os.Getenv` +
// `time.ParseDuration`.
type ExecutorConfig struct {
	Timeout         string `yaml:"timeout"`
	CacheEnabled    bool   `yaml:"cacheEnabled"`
	CacheDuration   string `yaml:"cacheDuration"`
	MaxRetries      int    `yaml:"maxRetries"`
	ContinueOnError bool   `yaml:"continueOnError"`
	RedisCacheURL   string `yaml:"redisCacheURL"`
}

// BrokerConfig configures the Broker (spec §4.10).
type BrokerConfig struct {
	LocalPeerID        string `yaml:"localPeerId"`
	RedisURL           string `yaml:"redisUrl"`
	Namespace          string `yaml:"namespace"`
	HealthInterval     string `yaml:"healthInterval"`
	MaxFailoverRetries int    `yaml:"maxFailoverRetries"`
}

// TelemetryConfig selects the OpenTelemetry exporter for the pipeline's
// per-stage spans.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"serviceName"`
	Exporter     string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlpEndpoint"`
}

// PipelineConfig toggles the orchestrator's optional stages.
type PipelineConfig struct {
	MemoryEnabled bool   `yaml:"memoryEnabled"`
	MemoryTTL     string `yaml:"memoryTTL"`
}

// Config is the pipeline's root configuration object.
type Config struct {
	Logging   LoggingConfig       `yaml:"logging"`
	Safety    safety.Policy       `yaml:"safety"`
	Command   command.PolicyLists `yaml:"command"`
	Executor  ExecutorConfig      `yaml:"executor"`
	Broker    BrokerConfig        `yaml:"broker"`
	Telemetry TelemetryConfig     `yaml:"telemetry"`
	Pipeline  PipelineConfig      `yaml:"pipeline"`
}

// Option is a functional override applied after defaults and any YAML
// file, mirroring the teacher's `core.Option` precedence.
type Option func(*Config)

// DefaultConfig returns the pipeline's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Safety:  safety.DefaultPolicy(),
		Executor: ExecutorConfig{
			Timeout:       "30s",
			CacheEnabled:  true,
			CacheDuration: "5m",
			MaxRetries:    2,
		},
		Broker: BrokerConfig{
			Namespace:          "cogpipe:broker",
			HealthInterval:     "30s",
			MaxFailoverRetries: 3,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "cognitive-pipeline",
			Exporter:    "none",
		},
		Pipeline: PipelineConfig{
			MemoryEnabled: true,
			MemoryTTL:     "30m",
		},
	}
}

// LoadFromFile merges a YAML file's contents onto cfg. Absent keys keep
// whatever cfg already held (YAML decoding into an already-populated
// struct only overwrites the keys present in the document).
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv applies the small set of environment variables the
// pipeline recognizes, taking precedence over defaults and any loaded
// file but yielding to functional options (same three-layer order as
// the teacher's `LoadFromEnv`).
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("EXECUTOR_TIMEOUT"); v != "" {
		c.Executor.Timeout = v
	}
	if v := os.Getenv("EXECUTOR_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Executor.MaxRetries = n
		}
	}
	if v := os.Getenv("BROKER_REDIS_URL"); v != "" {
		c.Broker.RedisURL = v
	}
	if v := os.Getenv("TELEMETRY_EXPORTER"); v != "" {
		c.Telemetry.Exporter = v
		c.Telemetry.Enabled = v != "none" && v != ""
	}
	if v := os.Getenv("TELEMETRY_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
}

// NewConfig builds a Config from defaults, optionally a YAML file,
// environment variables, and finally opts, in that precedence order,
// then validates the result.
func NewConfig(configFile string, opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg.LoadFromEnv()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects a Config whose duration strings or numeric knobs
// can't be resolved, so a bad file/env value fails fast at startup
// rather than inside a running pipeline.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Executor.Timeout); err != nil {
		return fmt.Errorf("executor.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Executor.CacheDuration); err != nil {
		return fmt.Errorf("executor.cacheDuration: %w", err)
	}
	if c.Executor.MaxRetries < 0 {
		return fmt.Errorf("executor.maxRetries must be non-negative, got %d", c.Executor.MaxRetries)
	}
	if _, err := time.ParseDuration(c.Broker.HealthInterval); err != nil {
		return fmt.Errorf("broker.healthInterval: %w", err)
	}
	if _, err := time.ParseDuration(c.Pipeline.MemoryTTL); err != nil {
		return fmt.Errorf("pipeline.memoryTTL: %w", err)
	}
	switch c.Telemetry.Exporter {
	case "otlp", "stdout", "none", "":
	default:
		return fmt.Errorf("telemetry.exporter: unknown exporter %q", c.Telemetry.Exporter)
	}
	return nil
}

// WithLogLevel overrides the logging level.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.Logging.Level = level }
}

// WithSafetyPolicy replaces the safety engine's policy wholesale.
func WithSafetyPolicy(policy safety.Policy) Option {
	return func(c *Config) { c.Safety = policy }
}

// WithExecutorCacheEnabled toggles the executor's result cache.
func WithExecutorCacheEnabled(enabled bool) Option {
	return func(c *Config) { c.Executor.CacheEnabled = enabled }
}

// WithBrokerRedisURL points the broker's peer store at Redis instead of
// the in-memory default.
func WithBrokerRedisURL(url string) Option {
	return func(c *Config) { c.Broker.RedisURL = url }
}

// WithTelemetryExporter selects "otlp", "stdout", or "none".
func WithTelemetryExporter(exporter string) Option {
	return func(c *Config) {
		c.Telemetry.Exporter = exporter
		c.Telemetry.Enabled = exporter != "none" && exporter != ""
	}
}

// WithMemoryEnabled toggles the orchestrator's memory recall/update stages.
func WithMemoryEnabled(enabled bool) Option {
	return func(c *Config) { c.Pipeline.MemoryEnabled = enabled }
}
