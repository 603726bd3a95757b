// Package telemetry wires OpenTelemetry tracing and metrics for posting-sync.
// Traces are pushed over OTLP/HTTP. Metrics are either pushed over OTLP/HTTP
// or exposed to a Prometheus scraper on /metrics.
package telemetry

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultServiceName is reported when Config.ServiceName is empty
	DefaultServiceName = "posting-sync"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling samples 5% of root traces
	DefaultSampling = 0.05

	// MetricsExporterOTLP pushes metrics to the collector
	MetricsExporterOTLP = "otlp"

	// MetricsExporterPrometheus serves metrics on /metrics
	MetricsExporterPrometheus = "prometheus"

	unknownVersion = "unknown"
)

// Config is the telemetry section of the service configuration
type Config struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`
	// Endpoint is host:port of the OTLP/HTTP collector, without a scheme
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig enables span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Sampling is the ratio of root traces kept, between 0 and 1
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig enables metric export
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter,omitempty"`
}

// GetExporter returns the configured exporter, otlp when unset
func (c *MetricsConfig) GetExporter() string {
	if c == nil || c.Exporter == "" {
		return MetricsExporterOTLP
	}
	return c.Exporter
}

// GetSampling returns the configured ratio or DefaultSampling
func (c *TracingConfig) GetSampling() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// settings is Config with every default resolved
type settings struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool

	tracing  bool
	sampling float64

	metrics  bool
	exporter string
}

func (c *Config) resolve() settings {
	s := settings{
		serviceName:    DefaultServiceName,
		serviceVersion: unknownVersion,
		endpoint:       DefaultEndpoint,
		sampling:       DefaultSampling,
		exporter:       MetricsExporterOTLP,
	}
	if c == nil || !c.Enabled {
		return s
	}

	if c.ServiceName != "" {
		s.serviceName = c.ServiceName
	}
	if c.ServiceVersion != "" {
		s.serviceVersion = c.ServiceVersion
	}
	if c.Endpoint != "" {
		s.endpoint = c.Endpoint
	}
	s.insecure = c.Insecure

	if c.Tracing != nil && c.Tracing.Enabled {
		s.tracing = true
		s.sampling = c.Tracing.GetSampling()
	}
	if c.Metrics != nil && c.Metrics.Enabled {
		s.metrics = true
		s.exporter = c.Metrics.GetExporter()
	}
	return s
}

// pushesOTLP reports whether anything is sent to the collector endpoint
func (s settings) pushesOTLP() bool {
	return s.tracing || (s.metrics && s.exporter == MetricsExporterOTLP)
}

// Validate checks an enabled configuration. A nil or disabled one is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
	}
	if c.Tracing != nil && c.Tracing.Enabled {
		if ratio := c.Tracing.GetSampling(); ratio < 0 || ratio > 1 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %g", ratio))
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled {
		switch exporter := c.Metrics.GetExporter(); exporter {
		case MetricsExporterOTLP, MetricsExporterPrometheus:
		default:
			errs = append(errs, fmt.Errorf("metrics: exporter must be %q or %q, got %q",
				MetricsExporterOTLP, MetricsExporterPrometheus, exporter))
		}
	}
	return errors.Join(errs...)
}
