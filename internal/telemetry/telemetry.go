package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the OTel providers for one docguard process. An exporter
// that cannot be built degrades the instance; scanning continues against
// the global no-op providers.
type Telemetry struct {
	config *Config

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	logProvider    log.LoggerProvider

	closed  atomic.Bool
	lastErr atomic.Pointer[error]
}

// HealthStatus reports provider health.
type HealthStatus struct {
	Healthy  bool
	Degraded bool
	LastErr  error
}

// New builds the configured providers and installs them globally. A
// disabled config yields an instance that hands out no-op providers.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	res := newResource(cfg)

	if tp, err := newTracerProvider(ctx, cfg, res); err != nil {
		t.degrade(fmt.Errorf("tracer provider: %w", err))
	} else {
		t.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	if cfg.Metrics.Enabled {
		if mp, err := newMeterProvider(ctx, cfg, res); err != nil {
			t.degrade(fmt.Errorf("meter provider: %w", err))
		} else {
			t.meterProvider = mp
			otel.SetMeterProvider(mp)
		}
	}

	t.logProvider = global.GetLoggerProvider()
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return t, nil
}

// Tracer returns a tracer, falling back to the global provider.
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter, falling back to the global provider.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.Meter(name, opts...)
	}
	return t.meterProvider.Meter(name, opts...)
}

// LoggerProvider returns the provider for the zap bridge, or nil when
// telemetry is disabled.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	if t == nil {
		return nil
	}
	return t.logProvider
}

// Shutdown flushes pending spans and metrics. Without a deadline on ctx the
// configured shutdown timeout applies.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.closed.Swap(true) {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Shutdown.Timeout.Duration())
		defer cancel()
	}

	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Health reports whether the providers are up. A nil instance is degraded.
func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	var last error
	if p := t.lastErr.Load(); p != nil {
		last = *p
	}
	return HealthStatus{
		Healthy:  !t.closed.Load(),
		Degraded: last != nil,
		LastErr:  last,
	}
}

// IsEnabled reports whether telemetry is configured on and not shut down.
func (t *Telemetry) IsEnabled() bool {
	return t != nil && t.config != nil && t.config.Enabled && !t.closed.Load()
}

func (t *Telemetry) degrade(err error) {
	t.lastErr.Store(&err)
}
