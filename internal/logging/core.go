package logging

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var droppedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docguard_log_entries_dropped_total",
	Help: "Log entries dropped by sampling, by level.",
}, []string{"level"})

// newCore builds the stdout and OTEL sinks and applies sampling.
func newCore(cfg *Config, level zap.AtomicLevel, provider log.LoggerProvider, o options) (zapcore.Core, error) {
	var cores []zapcore.Core

	if cfg.Stdout {
		enc := newRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction, o.scrubber)
		cores = append(cores, zapcore.NewCore(enc, o.sink, level))
	}
	if cfg.OTEL && provider != nil {
		bridge := otelzap.NewCore("github.com/fyrsmithlabs/docguard", otelzap.WithLoggerProvider(provider))
		cores = append(cores, levelGate{Core: bridge, enabler: level})
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("no log output available: otel requested without a provider")
	}

	return sample(zapcore.NewTee(cores...), cfg.Sampling), nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = encodeLevel
	if format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// encodeLevel names TraceLevel instead of printing "Level(-2)".
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == TraceLevel {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(l, enc)
}

// sample wraps core so entries below Warn are sampled per tick. Warn and
// above bypass the sampler.
func sample(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	hook := zapcore.SamplerHook(func(ent zapcore.Entry, dec zapcore.SamplingDecision) {
		if dec&zapcore.LogDropped != 0 {
			droppedEntries.WithLabelValues(ent.Level.String()).Inc()
		}
	})
	below := levelGate{Core: core, enabler: zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l < zapcore.WarnLevel
	})}
	sampled := zapcore.NewSamplerWithOptions(below, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter, hook)
	unsampled := levelGate{Core: core, enabler: zapcore.WarnLevel}
	return zapcore.NewTee(sampled, unsampled)
}

// levelGate restricts a core to the levels enabler accepts.
type levelGate struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (g levelGate) Enabled(l zapcore.Level) bool {
	return g.enabler.Enabled(l) && g.Core.Enabled(l)
}

func (g levelGate) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !g.Enabled(ent.Level) {
		return ce
	}
	return g.Core.Check(ent, ce)
}

func (g levelGate) With(fields []zapcore.Field) zapcore.Core {
	return levelGate{Core: g.Core.With(fields), enabler: g.enabler}
}
