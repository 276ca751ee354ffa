package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fyrsmithlabs/docguard/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()

	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, tel.IsEnabled())
	assert.True(t, tel.Health().Healthy)
	assert.Nil(t, tel.LoggerProvider())
	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.False(t, tel.IsEnabled())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.True(t, tel.Health().Degraded)
	assert.NotNil(t, tel.Tracer("x"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips checks", func(c *Config) { c.Endpoint = "" }, false},
		{"enabled defaults", func(c *Config) { c.Enabled = true }, false},
		{"missing endpoint", func(c *Config) { c.Enabled = true; c.Endpoint = "" }, true},
		{"missing service name", func(c *Config) { c.Enabled = true; c.ServiceName = "" }, true},
		{"insecure remote", func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, true},
		{"secure remote", func(c *Config) {
			c.Enabled = true
			c.Endpoint = "https://otel.example.com:4318"
			c.Insecure = false
		}, false},
		{"insecure ipv6 loopback", func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }, false},
		{"sampling out of range", func(c *Config) { c.Enabled = true; c.Sampling.Rate = 1.5 }, true},
		{"zero export interval", func(c *Config) { c.Enabled = true; c.Metrics.ExportInterval = 0 }, true},
		{"zero shutdown timeout", func(c *Config) { c.Enabled = true; c.Shutdown.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.OTELConfig{
		Enable:      true,
		Endpoint:    "127.0.0.1:4317",
		ServiceName: "scanner",
		Insecure:    true,
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "127.0.0.1:4317", cfg.Endpoint)
	assert.Equal(t, "scanner", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.NoError(t, cfg.Validate())
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "host:4318", stripScheme("https://host:4318"))
	assert.Equal(t, "host:4318", stripScheme("http://host:4318"))
	assert.Equal(t, "host:4317", stripScheme("host:4317"))
}

func TestTestTelemetry_RecordsSpans(t *testing.T) {
	tel := NewTestTelemetry()

	_, span := tel.Tracer("test").Start(context.Background(), "scan.file")
	span.SetAttributes(attribute.String("file.name", "a.pdf"), attribute.Int("scan.pages", 3))
	span.End()

	tel.AssertSpanExists(t, "scan.file")
	tel.AssertSpanAttribute(t, "scan.file", "file.name", "a.pdf")
	tel.AssertSpanAttribute(t, "scan.file", "scan.pages", int64(3))
	assert.Len(t, tel.SpansByName("scan.file"), 1)
}

func TestTestTelemetry_CollectsMetrics(t *testing.T) {
	tel := NewTestTelemetry()
	ctx := context.Background()

	counter, err := tel.Meter("test").Int64Counter("docguard.test.count")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	rm, err := tel.CollectMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "docguard.test.count", rm.ScopeMetrics[0].Metrics[0].Name)
}

func TestShutdown_Idempotent(t *testing.T) {
	tel := NewTestTelemetry()

	assert.True(t, tel.IsEnabled())
	require.NoError(t, tel.Shutdown(context.Background()))
	require.NoError(t, tel.Shutdown(context.Background()))

	assert.False(t, tel.IsEnabled())
	assert.False(t, tel.Health().Healthy)
}

func TestHealth_Degraded(t *testing.T) {
	tel := NewTestTelemetry()
	tel.degrade(assert.AnError)

	health := tel.Health()
	assert.True(t, health.Healthy)
	assert.True(t, health.Degraded)
	assert.ErrorIs(t, health.LastErr, assert.AnError)
}

func TestSampler(t *testing.T) {
	assert.True(t, strings.HasPrefix(sampler(1).Description(), "ParentBased{root:AlwaysOnSampler"))
	assert.True(t, strings.HasPrefix(sampler(0).Description(), "ParentBased{root:AlwaysOffSampler"))
	assert.True(t, strings.HasPrefix(sampler(0.25).Description(), "ParentBased{root:TraceIDRatioBased{0.25}"))
}

func TestTLSConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Nil(t, tlsConfig(cfg))

	cfg.Insecure = false
	assert.Nil(t, tlsConfig(cfg))

	cfg.TLSSkipVerify = true
	tc := tlsConfig(cfg)
	require.NotNil(t, tc)
	assert.True(t, tc.InsecureSkipVerify)
}

func TestConfig_ValidateReportsAll(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = ""
	cfg.Sampling.Rate = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_name is required")
	assert.Contains(t, err.Error(), "sampling.rate")
}

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"localhost:4317":        true,
		"http://127.0.0.1:4318": true,
		"[::1]:4317":            true,
		"127.10.0.1":            true,
		"otel.example.com:4317": false,
		"https://10.0.0.5:4318": false,
		"localhost.example.com": false,
	}
	for endpoint, want := range tests {
		assert.Equal(t, want, isLoopback(endpoint), endpoint)
	}
}
