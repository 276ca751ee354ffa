package keywords

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for keyword files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported keyword file format")

// maxFileSize bounds the keyword file read.
const maxFileSize = 4 * 1024 * 1024

// Format identifies a keyword file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// entryBody is the configured shape of one keyword.
type entryBody struct {
	FailIfFound   bool          `json:"fail_if_found" yaml:"fail_if_found" toml:"fail_if_found"`
	CheckVicinity *vicinityBody `json:"check_vicinity" yaml:"check_vicinity" toml:"check_vicinity"`
}

type vicinityBody struct {
	Terms    []string `json:"terms" yaml:"terms" toml:"terms"`
	Window   int      `json:"window" yaml:"window" toml:"window"`
	ReportAs string   `json:"report_as_concept" yaml:"report_as_concept" toml:"report_as_concept"`
}

func (b entryBody) entry(term string) Entry {
	e := Entry{Term: term, FailIfFound: b.FailIfFound}
	if b.CheckVicinity != nil {
		e.Vicinity = &VicinityEntry{
			Terms:    b.CheckVicinity.Terms,
			Window:   b.CheckVicinity.Window,
			ReportAs: b.CheckVicinity.ReportAs,
		}
	}
	return e
}

// Parse decodes a keyword mapping, keeping the key order of the document.
// A term repeated in the document keeps its first position and takes the
// value of its last occurrence.
func Parse(data []byte, format Format) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)
	switch format {
	case FormatJSON:
		entries, err = parseJSON(data)
	case FormatYAML:
		entries, err = parseYAML(data)
	case FormatTOML:
		entries, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return lastValueWins(entries), nil
}

func lastValueWins(entries []Entry) []Entry {
	at := make(map[string]int, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if i, seen := at[e.Term]; seen {
			out[i] = e
			continue
		}
		at[e.Term] = len(out)
		out = append(out, e)
	}
	return out
}

func parseJSON(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("keyword file is not valid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("keyword file must contain an object, got %s", root.Type)
	}

	var (
		entries []Entry
		err     error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		term := key.String()
		var body entryBody
		if uerr := json.Unmarshal([]byte(value.Raw), &body); uerr != nil {
			err = fmt.Errorf("decoding keyword %q: %w", term, uerr)
			return false
		}
		entries = append(entries, body.entry(term))
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func parseYAML(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("keyword file is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("keyword file must contain a mapping, got %s", root.Tag)
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		term := root.Content[i].Value
		var body entryBody
		if err := root.Content[i+1].Decode(&body); err != nil {
			return nil, fmt.Errorf("decoding keyword %q: %w", term, err)
		}
		entries = append(entries, body.entry(term))
	}
	return entries, nil
}

func parseTOML(data []byte) ([]Entry, error) {
	var raw map[string]entryBody
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing toml: %w", err)
	}

	var entries []Entry
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		term := key[0]
		entries = append(entries, raw[term].entry(term))
	}
	return entries, nil
}

// LoadReport describes the outcome of loading a keyword file.
type LoadReport struct {
	Path   string
	Loaded int
	// Skipped holds one error per entry that failed validation.
	Skipped []error
	// Err is set when the file could not be read or parsed at all.
	Err error
}

// OK reports whether every entry in the file was loaded.
func (r LoadReport) OK() bool {
	return r.Err == nil && len(r.Skipped) == 0
}

// Problems joins the file error and every skipped entry error.
func (r LoadReport) Problems() error {
	return errors.Join(append([]error{r.Err}, r.Skipped...)...)
}

// LoadFile reads a keyword file into a registry. Load problems are logged
// and reported, never returned: an unreadable or malformed file yields an
// empty registry and invalid entries are skipped.
func LoadFile(path string, logger *zap.Logger) (*Registry, LoadReport) {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := LoadReport{Path: path}

	entries, err := readEntries(path)
	if err != nil {
		report.Err = err
		logger.Warn("keyword registry unavailable, scanning with no keywords",
			zap.String("path", path),
			zap.Error(err),
		)
		return Empty(), report
	}

	rules := make([]Rule, 0, len(entries))
	for _, e := range entries {
		rule, err := NewRule(e)
		if err != nil {
			report.Skipped = append(report.Skipped, err)
			logger.Warn("skipping invalid keyword",
				zap.String("path", path),
				zap.String("term", e.Term),
				zap.Error(err),
			)
			continue
		}
		rules = append(rules, rule)
	}

	report.Loaded = len(rules)
	logger.Info("keyword registry loaded",
		zap.String("path", path),
		zap.Int("keywords", report.Loaded),
		zap.Int("skipped", len(report.Skipped)),
	)
	return &Registry{rules: rules}, report
}

func readEntries(path string) ([]Entry, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat keyword file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("keyword path is a directory: %s", path)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("keyword file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading keyword file: %w", err)
	}
	return Parse(data, format)
}
