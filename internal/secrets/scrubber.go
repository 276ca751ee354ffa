package secrets

import (
	"cmp"
	"slices"
	"strings"
)

// Scrubber detects and redacts sensitive values. It is safe for concurrent
// use.
type Scrubber struct {
	enabled     bool
	replacement string
	set         *ruleSet
	gitleaks    *detector
}

type span struct{ start, end int }

// New compiles cfg into a Scrubber. A nil cfg uses DefaultConfig.
func New(cfg *Config) (*Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Scrubber{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return s, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	s.replacement = cfg.RedactionString
	s.set = set
	if cfg.Gitleaks {
		if s.gitleaks, err = newDetector(set.allow); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Scrub returns text with every detected value replaced.
func (s *Scrubber) Scrub(text string) string {
	return s.Redact(text).Scrubbed
}

// Redact replaces detected values and reports what was found.
func (s *Scrubber) Redact(content string) *Result {
	result := &Result{Scrubbed: content, ByRule: make(map[string]int)}
	if !s.enabled {
		return result
	}

	var spans []span
	for _, rule := range s.set.rules {
		if !rule.applies(content) {
			continue
		}
		for _, loc := range rule.pattern.FindAllStringIndex(content, -1) {
			if s.set.allowed(content[loc[0]:loc[1]]) {
				continue
			}
			result.Findings = append(result.Findings, Finding{
				RuleID:     rule.id,
				Severity:   rule.severity,
				StartIndex: loc[0],
				EndIndex:   loc[1],
			})
			result.ByRule[rule.id]++
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	if s.gitleaks != nil {
		for _, f := range s.gitleaks.detect(content) {
			if s.set.allowed(content[f.StartIndex:f.EndIndex]) {
				continue
			}
			result.Findings = append(result.Findings, f)
			result.ByRule[f.RuleID]++
			spans = append(spans, span{f.StartIndex, f.EndIndex})
		}
	}
	if len(spans) == 0 {
		return result
	}

	var b strings.Builder
	pos := 0
	for _, sp := range merge(spans) {
		b.WriteString(content[pos:sp.start])
		b.WriteString(s.replacement)
		pos = sp.end
	}
	b.WriteString(content[pos:])
	result.Scrubbed = b.String()
	return result
}

// IsEnabled reports whether the scrubber redacts anything.
func (s *Scrubber) IsEnabled() bool {
	return s.enabled
}

// merge joins overlapping or touching spans. spans must be non-empty.
func merge(spans []span) []span {
	slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })

	out := spans[:1]
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.start > last.end {
			out = append(out, sp)
			continue
		}
		last.end = max(last.end, sp.end)
	}
	return out
}
