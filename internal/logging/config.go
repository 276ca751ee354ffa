package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/docguard/internal/config"
)

// TraceLevel sits below Debug and carries per-page match detail.
const TraceLevel = zapcore.DebugLevel - 1

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level `koanf:"level"`
	Format string        `koanf:"format"` // json or console

	// Stdout and OTEL select the sinks. At least one must be set.
	Stdout bool `koanf:"stdout"`
	OTEL   bool `koanf:"otel"`

	Sampling  SamplingConfig    `koanf:"sampling"`
	Caller    bool              `koanf:"caller"`
	Fields    map[string]string `koanf:"fields"`
	Redaction RedactionConfig   `koanf:"redaction"`
}

// SamplingConfig limits repeated entries below Warn. Warn and above are
// always written.
type SamplingConfig struct {
	Enabled    bool            `koanf:"enabled"`
	Tick       config.Duration `koanf:"tick"`
	Initial    int             `koanf:"initial"`
	Thereafter int             `koanf:"thereafter"`
}

// RedactionConfig keeps document text out of log sinks.
type RedactionConfig struct {
	Enabled bool `koanf:"enabled"`
	// Fields are replaced wholesale, matched case-insensitively.
	Fields []string `koanf:"fields"`
}

// NewDefaultConfig returns production defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Stdout: true,
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       config.Duration(time.Second),
			Initial:    100,
			Thereafter: 10,
		},
		Caller: true,
		Fields: map[string]string{
			"service": "docguard",
		},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields:  []string{"phrase", "original_match", "page_text"},
		},
	}
}

// FromAppConfig builds a logging config from the application's logging section.
func FromAppConfig(c config.LoggingConfig) (*Config, error) {
	cfg := NewDefaultConfig()
	if c.Level != "" {
		level, err := ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}
	if c.Format != "" {
		cfg.Format = c.Format
	}
	return cfg, cfg.Validate()
}

// ParseLevel parses a level name. "trace" maps to TraceLevel.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.EqualFold(s, "trace") {
		return TraceLevel, nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if !c.Stdout && !c.OTEL {
		return fmt.Errorf("at least one output must be enabled (stdout or otel)")
	}
	if c.Sampling.Enabled {
		if c.Sampling.Tick.Duration() <= 0 {
			return fmt.Errorf("sampling tick must be > 0 when sampling enabled")
		}
		if c.Sampling.Initial < 1 {
			return fmt.Errorf("sampling initial must be >= 1, got %d", c.Sampling.Initial)
		}
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("static field %q must have a non-empty key and value", k)
		}
	}
	return nil
}
