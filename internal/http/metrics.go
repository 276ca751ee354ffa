package http

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/docguard/internal/http"

// HTTPMetrics records request and upload instruments for the API.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
	uploads  metric.Int64Histogram
}

// NewHTTPMetrics registers the instruments on the global meter provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	return newHTTPMetrics(otel.Meter(httpInstrumentationName), logger)
}

// newHTTPMetrics never fails: an instrument the meter rejects is replaced
// by a no-op and the error is logged once.
func newHTTPMetrics(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := noop.Meter{}
	var errs []error

	int64Counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, err)
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}
	int64Histogram := func(name, desc, unit string, bounds ...float64) metric.Int64Histogram {
		h, err := meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit),
			metric.WithExplicitBucketBoundaries(bounds...))
		if err != nil {
			errs = append(errs, err)
			h, _ = fallback.Int64Histogram(name)
		}
		return h
	}

	m := &HTTPMetrics{
		requests: int64Counter("docguard.http.requests_total",
			"HTTP requests by method, endpoint and status.", "{request}"),
		size: int64Histogram("docguard.http.response_size_bytes",
			"Response body size.", "By",
			100, 500, 1000, 5000, 10000, 50000, 100000, 500000),
		uploads: int64Histogram("docguard.http.upload_files",
			"Documents per check-document upload.", "{file}",
			1, 2, 5, 10, 25),
	}

	var err error
	m.duration, err = meter.Float64Histogram("docguard.http.request_duration_seconds",
		metric.WithDescription("Request latency by method, endpoint and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		errs = append(errs, err)
		m.duration, _ = fallback.Float64Histogram("docguard.http.request_duration_seconds")
	}
	m.inFlight, err = meter.Int64UpDownCounter("docguard.http.active_requests",
		metric.WithDescription("Requests currently being served."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		errs = append(errs, err)
		m.inFlight, _ = fallback.Int64UpDownCounter("docguard.http.active_requests")
	}

	if err := errors.Join(errs...); err != nil {
		logger.Warn("some http metrics are disabled", zap.Error(err))
	}
	return m
}

// RecordUpload records the number of documents in one upload.
func (m *HTTPMetrics) RecordUpload(ctx context.Context, files int) {
	if m == nil {
		return
	}
	m.uploads.Record(ctx, int64(files))
}

// MetricsMiddleware records one request sample per handled request.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			m.inFlight.Add(ctx, 1)
			defer m.inFlight.Add(ctx, -1)

			err := next(c)

			res := c.Response()
			status := res.Status
			// Echo writes returned errors after the middleware chain.
			var he *echo.HTTPError
			if errors.As(err, &he) && !res.Committed {
				status = he.Code
			}

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", status),
			)
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, res.Size, attrs)
			return err
		}
	}
}

// normalizePath maps the matched route to a metric label. Routes carry no
// parameters, so only unmatched requests need collapsing.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
