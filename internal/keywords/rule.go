package keywords

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTerm is returned for an entry whose term is blank.
	ErrEmptyTerm = errors.New("keyword term is empty")

	// ErrNegativeWindow is returned for a vicinity clause with window < 0.
	ErrNegativeWindow = errors.New("vicinity window is negative")

	// ErrNoVicinityTerms is returned for a vicinity clause without terms.
	ErrNoVicinityTerms = errors.New("vicinity terms are empty")

	// ErrDuplicateTerm is returned when two entries share a term.
	ErrDuplicateTerm = errors.New("duplicate keyword term")
)

// Kind discriminates the rule variants.
type Kind int

const (
	// DirectRule matches the term as a whole word or phrase in raw text.
	DirectRule Kind = iota

	// VicinityRule matches the term only when a vicinity term is near it.
	VicinityRule
)

func (k Kind) String() string {
	switch k {
	case DirectRule:
		return "direct"
	case VicinityRule:
		return "vicinity"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is one keyword as it appears in configuration.
type Entry struct {
	Term        string
	FailIfFound bool
	Vicinity    *VicinityEntry
}

// VicinityEntry is the optional check_vicinity clause of an Entry.
type VicinityEntry struct {
	Terms    []string
	Window   int
	ReportAs string
}

// Rule is an immutable, validated keyword rule.
type Rule struct {
	Term        string
	FailIfFound bool
	Kind        Kind

	// Vicinity is set if and only if Kind is VicinityRule.
	Vicinity *Vicinity
}

// Vicinity holds the proximity requirement of a VicinityRule.
type Vicinity struct {
	// Terms are the lowercased proximity terms in configuration order.
	Terms  []string
	Window int
	// ReportAs is the label emitted for matches, never empty.
	ReportAs string

	set map[string]struct{}
}

// Has reports whether the lowercased token is a proximity term.
func (v *Vicinity) Has(lower string) bool {
	_, ok := v.set[lower]
	return ok
}

// Label returns the label that matches of this rule are reported under.
func (r Rule) Label() string {
	if r.Kind == VicinityRule {
		return r.Vicinity.ReportAs
	}
	return r.Term
}

// NewRule validates an entry and builds its rule variant.
func NewRule(e Entry) (Rule, error) {
	if strings.TrimSpace(e.Term) == "" {
		return Rule{}, ErrEmptyTerm
	}

	rule := Rule{
		Term:        e.Term,
		FailIfFound: e.FailIfFound,
		Kind:        DirectRule,
	}
	if e.Vicinity == nil {
		return rule, nil
	}

	if e.Vicinity.Window < 0 {
		return Rule{}, fmt.Errorf("%w: %q window %d", ErrNegativeWindow, e.Term, e.Vicinity.Window)
	}

	v := &Vicinity{
		Window:   e.Vicinity.Window,
		ReportAs: e.Vicinity.ReportAs,
		set:      make(map[string]struct{}, len(e.Vicinity.Terms)),
	}
	for _, term := range e.Vicinity.Terms {
		lower := strings.ToLower(strings.TrimSpace(term))
		if lower == "" {
			continue
		}
		if _, dup := v.set[lower]; dup {
			continue
		}
		v.set[lower] = struct{}{}
		v.Terms = append(v.Terms, lower)
	}
	if len(v.Terms) == 0 {
		return Rule{}, fmt.Errorf("%w: %q", ErrNoVicinityTerms, e.Term)
	}
	if v.ReportAs == "" {
		v.ReportAs = e.Term
	}

	rule.Kind = VicinityRule
	rule.Vicinity = v
	return rule, nil
}
