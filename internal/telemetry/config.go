package telemetry

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/fyrsmithlabs/docguard/internal/config"
)

// Config controls the OTLP exporters.
type Config struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	// Protocol is "grpc" or "http/protobuf". Empty means grpc.
	Protocol       string `koanf:"protocol"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Insecure       bool   `koanf:"insecure"`
	TLSSkipVerify  bool   `koanf:"tls_skip_verify"`

	Sampling SamplingConfig `koanf:"sampling"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Shutdown ShutdownConfig `koanf:"shutdown"`
}

// SamplingConfig sets the fraction of root traces kept.
type SamplingConfig struct {
	Rate float64 `koanf:"rate"`
}

type MetricsConfig struct {
	Enabled        bool            `koanf:"enabled"`
	ExportInterval config.Duration `koanf:"export_interval"`
}

type ShutdownConfig struct {
	Timeout config.Duration `koanf:"timeout"`
}

// NewDefaultConfig returns a disabled configuration pointing at a local
// collector.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:       "localhost:4317",
		ServiceName:    "docguard",
		ServiceVersion: "0.1.0",
		Insecure:       true,
		Sampling:       SamplingConfig{Rate: 1},
		Metrics: MetricsConfig{
			Enabled:        true,
			ExportInterval: config.Duration(15 * time.Second),
		},
		Shutdown: ShutdownConfig{Timeout: config.Duration(5 * time.Second)},
	}
}

// FromAppConfig overlays the otel section of the application config.
func FromAppConfig(c config.OTELConfig, version string) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = c.Enable
	cfg.Insecure = c.Insecure
	for dst, src := range map[*string]string{
		&cfg.Endpoint:       c.Endpoint,
		&cfg.ServiceName:    c.ServiceName,
		&cfg.ServiceVersion: version,
	} {
		if src != "" {
			*dst = src
		}
	}
	return cfg
}

// Validate reports every problem of an enabled configuration at once.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	required := func(name, v string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required when telemetry is enabled", name))
		}
	}
	required("endpoint", c.Endpoint)
	required("service_name", c.ServiceName)
	required("service_version", c.ServiceVersion)

	if c.Endpoint != "" && c.Insecure && !isLoopback(c.Endpoint) {
		errs = append(errs, fmt.Errorf("insecure export to %s refused; use TLS or a loopback collector", c.Endpoint))
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		errs = append(errs, fmt.Errorf("sampling.rate must be within [0, 1], got %g", c.Sampling.Rate))
	}
	if c.Metrics.Enabled && c.Metrics.ExportInterval <= 0 {
		errs = append(errs, errors.New("metrics.export_interval must be positive"))
	}
	if c.Shutdown.Timeout <= 0 {
		errs = append(errs, errors.New("shutdown.timeout must be positive"))
	}
	return errors.Join(errs...)
}

// isLoopback reports whether endpoint names localhost or a loopback address.
func isLoopback(endpoint string) bool {
	host := stripScheme(endpoint)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.IsLoopback()
}
