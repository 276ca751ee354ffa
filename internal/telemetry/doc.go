// Package telemetry wires docguard to an OpenTelemetry collector.
//
// New builds tracer and meter providers that export over OTLP (gRPC or
// HTTP) and installs them globally. When the collector is unreachable or
// telemetry is disabled, New still returns a usable Telemetry backed by
// no-op providers and Health reports it as degraded:
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.OTEL, version))
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Tests use NewTestTelemetry, which records spans and metrics in memory
// and offers assertions such as AssertSpanExists.
package telemetry
