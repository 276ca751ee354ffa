package secrets

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultRedaction replaces every detected value.
const DefaultRedaction = "[REDACTED]"

// Config configures the scrubber.
type Config struct {
	Enabled bool `koanf:"enabled"`
	// Gitleaks runs the default gitleaks rule set in addition to Rules.
	Gitleaks bool   `koanf:"gitleaks"`
	Rules    []Rule `koanf:"rules"`
	// RedactionString replaces detected values. Empty means DefaultRedaction.
	RedactionString string `koanf:"redaction_string"`
	// AllowList holds patterns whose matches are never redacted.
	AllowList []string `koanf:"allow_list"`
}

// Rule detects one kind of secret.
type Rule struct {
	ID          string `koanf:"id"`
	Description string `koanf:"description"`
	Pattern     string `koanf:"pattern"`
	// Keywords gate the rule: when set, one of them must occur in the text
	// before Pattern is tried.
	Keywords []string `koanf:"keywords"`
	Severity string   `koanf:"severity"`
}

// DefaultConfig returns an enabled configuration running gitleaks and
// DocumentRules.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Gitleaks:        true,
		RedactionString: DefaultRedaction,
		Rules:           DocumentRules(),
	}
}

// Validate fills in the redaction string and checks that every rule and
// allow list pattern compiles.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RedactionString == "" {
		c.RedactionString = DefaultRedaction
	}
	_, err := c.compile()
	return err
}

// ruleSet is the compiled form of an enabled Config.
type ruleSet struct {
	rules []compiledRule
	allow []*regexp.Regexp
}

type compiledRule struct {
	id       string
	severity string
	pattern  *regexp.Regexp
	gates    []*regexp.Regexp
}

func (c *Config) compile() (*ruleSet, error) {
	set := &ruleSet{rules: make([]compiledRule, 0, len(c.Rules))}
	ids := make(map[string]bool, len(c.Rules))

	for i, r := range c.Rules {
		switch {
		case r.ID == "":
			return nil, fmt.Errorf("rule %d has no id", i)
		case ids[r.ID]:
			return nil, fmt.Errorf("rule %q is defined twice", r.ID)
		case r.Pattern == "":
			return nil, fmt.Errorf("rule %q has no pattern", r.ID)
		}
		ids[r.ID] = true

		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		cr := compiledRule{id: r.ID, severity: r.Severity, pattern: re}
		for _, kw := range r.Keywords {
			cr.gates = append(cr.gates, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		set.rules = append(set.rules, cr)
	}

	var errs []error
	for i, p := range c.AllowList {
		re, err := regexp.Compile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("allow_list[%d]: %w", i, err))
			continue
		}
		set.allow = append(set.allow, re)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return set, nil
}

func (r compiledRule) applies(text string) bool {
	if len(r.gates) == 0 {
		return true
	}
	for _, g := range r.gates {
		if g.MatchString(text) {
			return true
		}
	}
	return false
}

func (s *ruleSet) allowed(match string) bool {
	for _, re := range s.allow {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}
