// Package config provides configuration loading for docguard.
//
// Configuration comes from an optional YAML file, overridden by DOCGUARD_*
// environment variables, with defaults applied for anything left unset.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete docguard configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Keywords KeywordsConfig `koanf:"keywords"`
	Scan     ScanConfig     `koanf:"scan"`
	NATS     NATSConfig     `koanf:"nats"`
	Logging  LoggingConfig  `koanf:"logging"`
	OTEL     OTELConfig     `koanf:"otel"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	MaxFiles        int      `koanf:"max_files"`      // Files accepted per upload request (default: 25)
	MaxUploadMB     int      `koanf:"max_upload_mb"`  // Request body limit in MB (default: 100)
	RateLimit       float64  `koanf:"rate_limit"`     // Upload requests per second, 0 disables
	RateBurst       int      `koanf:"rate_burst"`
}

// KeywordsConfig locates the keyword registry file.
type KeywordsConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"` // Reload the registry when the file changes
}

// ScanConfig tunes the scan pipeline.
type ScanConfig struct {
	Workers       int  `koanf:"workers"`        // Files scanned concurrently (default: 1)
	ContextWindow int  `koanf:"context_window"` // Characters of context around a match (default: 60)
	ScrubSecrets  bool `koanf:"scrub_secrets"`  // Redact credentials found inside context phrases
}

// NATSConfig configures the optional result publisher.
type NATSConfig struct {
	URL     string `koanf:"url"` // Empty disables publishing
	Subject string `koanf:"subject"`
}

// LoggingConfig is the subset of logging settings exposed through config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Enable      bool   `koanf:"enable"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
	Insecure    bool   `koanf:"insecure"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 0 and 65535 (0 picks a free port)
//   - Shutdown timeout is not positive
//   - Upload limits are not positive
//   - Worker count or context window is out of range
//   - Service name is empty (when telemetry is enabled)
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 0-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.MaxFiles < 1 {
		return fmt.Errorf("server.max_files must be >= 1, got %d", c.Server.MaxFiles)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be >= 1, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit cannot be negative, got %f", c.Server.RateLimit)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", c.Scan.Workers)
	}
	if c.Scan.ContextWindow < 0 {
		return fmt.Errorf("scan.context_window cannot be negative, got %d", c.Scan.ContextWindow)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.OTEL.Enable && c.OTEL.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.MaxFiles == 0 {
		cfg.Server.MaxFiles = 25
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 100
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 10
	}

	if cfg.Keywords.Path == "" {
		cfg.Keywords.Path = "keywords.json"
	}

	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 1
	}
	if cfg.Scan.ContextWindow == 0 {
		cfg.Scan.ContextWindow = 60
	}

	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "docguard.results"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.OTEL.Endpoint == "" {
		cfg.OTEL.Endpoint = "localhost:4317"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "docguard"
	}
}
