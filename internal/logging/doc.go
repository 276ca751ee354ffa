// Package logging wraps zap for docguard.
//
// A Logger adds correlation fields from the context (trace, request, batch
// and file) to every entry, supports a Trace level below Debug, and can
// change level at runtime.
//
// Entries go to stdout, to an OpenTelemetry log provider through the otelzap
// bridge, or both. Entries below Warn are sampled; dropped entries are
// counted in docguard_log_entries_dropped_total.
//
// The stdout sink never prints matched document text: fields named in
// RedactionConfig.Fields are replaced, and with WithScrubber every string
// value is passed through the secret scrubber.
//
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider(), logging.WithScrubber(scrubber))
//	ctx = logging.WithBatchID(ctx, id)
//	logger.Info(ctx, "batch scanned", zap.Int("files", n))
//
// Components that take a *zap.Logger get logger.Underlying().
package logging
