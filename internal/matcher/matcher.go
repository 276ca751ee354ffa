// Package matcher applies keyword rules to the text of one page.
//
// Direct rules are searched in the raw text with whole-word boundaries so
// multi-word phrases can match. A phrase matches its literal spacing only:
// "ice cream" does not match "ice  cream" or a line break between the words,
// which PDF extraction often produces. Vicinity rules run over the token stream
// because they compare token positions.
package matcher

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fyrsmithlabs/docguard/internal/keywords"
	"github.com/fyrsmithlabs/docguard/internal/snippet"
	"github.com/fyrsmithlabs/docguard/internal/tokenize"
)

// MatchInstance is one reported occurrence of a keyword.
type MatchInstance struct {
	Page          int    `json:"page"`
	Label         string `json:"word"`
	ContextPhrase string `json:"phrase"`
	OriginalMatch string `json:"original_match"`
}

// Hit describes the rule behind a MatchInstance for tallying.
type Hit struct {
	Label       string
	FailIfFound bool
	// Start and End are the byte span of the match in the page text.
	Start int
	End   int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithContextWindow sets the context phrase window in characters.
func WithContextWindow(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.window = n
		}
	}
}

type compiledRule struct {
	rule keywords.Rule
	// pattern is set for direct rules.
	pattern *regexp.Regexp
	// trigger is the lowercased term of vicinity rules.
	trigger string
}

// Matcher holds the rules of one registry snapshot compiled for matching.
// It is safe for concurrent use.
type Matcher struct {
	rules       []compiledRule
	window      int
	hasVicinity bool
}

// New compiles every rule of reg.
func New(reg *keywords.Registry, opts ...Option) *Matcher {
	m := &Matcher{window: snippet.DefaultWindow}
	for _, opt := range opts {
		opt(m)
	}

	for _, rule := range reg.All() {
		c := compiledRule{rule: rule}
		switch rule.Kind {
		case keywords.VicinityRule:
			c.trigger = strings.ToLower(rule.Term)
			m.hasVicinity = true
		default:
			c.pattern = regexp.MustCompile("(?i)" + regexp.QuoteMeta(rule.Term))
		}
		m.rules = append(m.rules, c)
	}
	return m
}

// MatchPage finds all rule matches in one page. Instances are grouped by
// rule in registry order and are in text order within a rule. hits[i]
// describes instances[i].
func (m *Matcher) MatchPage(page int, text string) ([]MatchInstance, []Hit) {
	var (
		instances []MatchInstance
		hits      []Hit
		tokens    []tokenize.Token
	)
	if m.hasVicinity {
		tokens = tokenize.Collect(text)
	}

	emit := func(c compiledRule, start, end int, original string) {
		instances = append(instances, MatchInstance{
			Page:          page,
			Label:         c.rule.Label(),
			ContextPhrase: snippet.Extract(text, start, end, m.window),
			OriginalMatch: original,
		})
		hits = append(hits, Hit{
			Label:       c.rule.Label(),
			FailIfFound: c.rule.FailIfFound,
			Start:       start,
			End:         end,
		})
	}

	for _, c := range m.rules {
		switch c.rule.Kind {
		case keywords.VicinityRule:
			matchVicinity(c, tokens, emit)
		default:
			matchDirect(c, text, emit)
		}
	}
	return instances, hits
}

func matchDirect(c compiledRule, text string, emit func(compiledRule, int, int, string)) {
	pos := 0
	for pos < len(text) {
		loc := c.pattern.FindStringIndex(text[pos:])
		if loc == nil {
			return
		}
		start, end := pos+loc[0], pos+loc[1]

		if end > start && isBoundary(text, start, end) {
			emit(c, start, end, text[start:end])
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + max(size, 1)
	}
}

// isBoundary reports whether text[start:end] is neither preceded nor
// followed by a word character.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); tokenize.IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); tokenize.IsWordRune(r) {
			return false
		}
	}
	return true
}

// matchVicinity emits at most one match per trigger token. The window is
// searched outward from the trigger, left before right at equal distance.
func matchVicinity(c compiledRule, tokens []tokenize.Token, emit func(compiledRule, int, int, string)) {
	v := c.rule.Vicinity
	for i, trig := range tokens {
		if trig.Lower != c.trigger {
			continue
		}
		j, ok := nearest(tokens, i, v)
		if !ok {
			continue
		}

		first, second := tokens[i], tokens[j]
		if j < i {
			first, second = second, first
		}
		emit(c, first.Start, second.End, first.Text+" ... "+second.Text)
	}
}

func nearest(tokens []tokenize.Token, i int, v *keywords.Vicinity) (int, bool) {
	for d := 1; d <= v.Window; d++ {
		if l := i - d; l >= 0 && v.Has(tokens[l].Lower) {
			return l, true
		}
		if r := i + d; r < len(tokens) && v.Has(tokens[r].Lower) {
			return r, true
		}
		if i-d < 0 && i+d >= len(tokens) {
			break
		}
	}
	return 0, false
}

// Cache reuses the Matcher compiled for the most recent registry snapshot.
type Cache struct {
	mu   sync.Mutex
	opts []Option
	reg  *keywords.Registry
	m    *Matcher
}

// NewCache creates a cache whose matchers are built with opts.
func NewCache(opts ...Option) *Cache {
	return &Cache{opts: opts}
}

// For returns the matcher for reg, compiling it on a snapshot change.
func (c *Cache) For(reg *keywords.Registry) *Matcher {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.m == nil || c.reg != reg {
		c.m = New(reg, c.opts...)
		c.reg = reg
	}
	return c.m
}
