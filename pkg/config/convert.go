package config

import (
	"time"

	"github.com/cogpipe/core/pkg/executor"
	"github.com/cogpipe/core/pkg/telemetry"
)

// ToExecutorOptions resolves the config's duration strings into an
// executor.Options. Call Validate first: this panics on a malformed
// duration rather than silently falling back, since that indicates a
// config that should never have reached this point.
func (c *Config) ToExecutorOptions() executor.Options {
	timeout, err := time.ParseDuration(c.Executor.Timeout)
	if err != nil {
		panic("config: invalid executor.timeout: " + err.Error())
	}
	cacheDuration, err := time.ParseDuration(c.Executor.CacheDuration)
	if err != nil {
		panic("config: invalid executor.cacheDuration: " + err.Error())
	}
	return executor.Options{
		Timeout:         timeout,
		CacheEnabled:    c.Executor.CacheEnabled,
		CacheDuration:   cacheDuration,
		MaxRetries:      c.Executor.MaxRetries,
		ContinueOnError: c.Executor.ContinueOnError,
	}
}

// ToTelemetryConfig adapts the config's telemetry section into the
// shape telemetry.NewProvider expects.
func (c *Config) ToTelemetryConfig() telemetry.Config {
	exporter := telemetry.ExporterNone
	switch c.Telemetry.Exporter {
	case "otlp":
		exporter = telemetry.ExporterOTLP
	case "stdout":
		exporter = telemetry.ExporterStdout
	}
	return telemetry.Config{
		ServiceName:  c.Telemetry.ServiceName,
		Exporter:     exporter,
		OTLPEndpoint: c.Telemetry.OTLPEndpoint,
	}
}

// MemoryTTL resolves the pipeline's memory-retention window.
func (c *Config) MemoryTTL() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.MemoryTTL)
	if err != nil {
		panic("config: invalid pipeline.memoryTTL: " + err.Error())
	}
	return d
}

// BrokerHealthInterval resolves the broker's staleness-sweep cadence.
func (c *Config) BrokerHealthInterval() time.Duration {
	d, err := time.ParseDuration(c.Broker.HealthInterval)
	if err != nil {
		panic("config: invalid broker.healthInterval: " + err.Error())
	}
	return d
}
