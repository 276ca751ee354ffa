package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCGUARD_"

const maxFileSize = 1 << 20

// Load reads configPath (optional, YAML), applies DOCGUARD_* environment
// overrides on top, fills in defaults and validates the result.
//
// Environment keys drop the prefix and split section from field at the
// first underscore:
//
//	DOCGUARD_SERVER_MAX_FILES -> server.max_files
//	DOCGUARD_NATS_URL         -> nats.url
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	data, err := readFile(configPath)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	section, field, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_")
	if !ok {
		return section
	}
	return section + "." + field
}

// readFile returns nil content for an empty path or a file that does not
// exist.
func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	switch {
	case err != nil:
		return nil, fmt.Errorf("stat config file: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("config path %s is a directory", path)
	case info.Size() > maxFileSize:
		return nil, fmt.Errorf("config file is %d bytes, limit is %d", info.Size(), maxFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return data, nil
}
