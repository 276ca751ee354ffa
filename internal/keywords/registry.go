// Package keywords holds the keyword rules that documents are scanned for.
//
// A Registry is immutable once built. The Store publishes registry snapshots
// atomically so a scan in flight never observes a reload.
package keywords

import (
	"errors"
	"fmt"
	"iter"
)

// Registry is an ordered, immutable set of keyword rules.
type Registry struct {
	rules []Rule
}

// Empty returns a registry without rules.
func Empty() *Registry {
	return &Registry{}
}

// New validates entries and builds a registry in entry order.
// All invalid entries are reported together.
func New(entries ...Entry) (*Registry, error) {
	var errs []error
	seen := make(map[string]struct{}, len(entries))
	rules := make([]Rule, 0, len(entries))

	for _, e := range entries {
		rule, err := NewRule(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[rule.Term]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateTerm, rule.Term))
			continue
		}
		seen[rule.Term] = struct{}{}
		rules = append(rules, rule)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Registry{rules: rules}, nil
}

// All iterates rules in configuration order.
func (r *Registry) All() iter.Seq2[int, Rule] {
	return func(yield func(int, Rule) bool) {
		if r == nil {
			return
		}
		for i, rule := range r.rules {
			if !yield(i, rule) {
				return
			}
		}
	}
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Labels returns the distinct report labels in first-seen order.
func (r *Registry) Labels() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.rules))
	labels := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		label := rule.Label()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
