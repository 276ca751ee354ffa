package scan

import (
	"slices"

	"github.com/fyrsmithlabs/docguard/internal/keywords"
	"github.com/fyrsmithlabs/docguard/internal/matcher"
)

type keywordTally struct {
	count       int
	pages       map[int]struct{}
	failIfFound bool
}

// tally accumulates per-label counts for one file.
type tally struct {
	order   []string
	byLabel map[string]*keywordTally
	failed  bool
}

// newTally zeroes one tally per registry label. Rules sharing a label share
// a tally, which fails if any of them is fail-if-found.
func newTally(reg *keywords.Registry) *tally {
	t := &tally{byLabel: make(map[string]*keywordTally, reg.Len())}
	for _, rule := range reg.All() {
		kt := t.get(rule.Label())
		kt.failIfFound = kt.failIfFound || rule.FailIfFound
	}
	return t
}

func (t *tally) get(label string) *keywordTally {
	kt, ok := t.byLabel[label]
	if !ok {
		kt = &keywordTally{pages: make(map[int]struct{})}
		t.byLabel[label] = kt
		t.order = append(t.order, label)
	}
	return kt
}

// record counts one hit on page.
func (t *tally) record(hit matcher.Hit, page int) {
	kt := t.get(hit.Label)
	kt.count++
	kt.pages[page] = struct{}{}
	if hit.FailIfFound {
		kt.failIfFound = true
		t.failed = true
	}
}

// failSummary lists fail-if-found labels with matches in registry order.
func (t *tally) failSummary() []FailSummary {
	summary := []FailSummary{}
	for _, label := range t.order {
		kt := t.byLabel[label]
		if !kt.failIfFound || kt.count == 0 {
			continue
		}
		pages := make([]int, 0, len(kt.pages))
		for p := range kt.pages {
			pages = append(pages, p)
		}
		slices.Sort(pages)
		summary = append(summary, FailSummary{Keyword: label, Count: kt.count, Pages: pages})
	}
	return summary
}

// result builds the final pass or fail result.
func (t *tally) result(filename string, instances []matcher.MatchInstance) FileResult {
	status := StatusPass
	if t.failed {
		status = StatusFail
	}
	return FileResult{
		Filename:       filename,
		Status:         status,
		FailSummary:    t.failSummary(),
		FoundInstances: nonNil(instances),
	}
}

// errorResult keeps whatever was accumulated before err.
func (t *tally) errorResult(filename string, instances []matcher.MatchInstance, err error) FileResult {
	return FileResult{
		Filename:       filename,
		Status:         StatusError,
		FailSummary:    t.failSummary(),
		FoundInstances: nonNil(instances),
		ErrorMessage:   ErrorMessage(err),
	}
}

func nonNil(instances []matcher.MatchInstance) []matcher.MatchInstance {
	if instances == nil {
		return []matcher.MatchInstance{}
	}
	return instances
}
