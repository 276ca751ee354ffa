package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRule(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr error
		check   func(t *testing.T, r Rule)
	}{
		{
			name:  "direct",
			entry: Entry{Term: "Secret", FailIfFound: true},
			check: func(t *testing.T, r Rule) {
				assert.Equal(t, DirectRule, r.Kind)
				assert.Nil(t, r.Vicinity)
				assert.Equal(t, "Secret", r.Label())
				assert.True(t, r.FailIfFound)
			},
		},
		{
			name: "vicinity with label",
			entry: Entry{Term: "trigger", Vicinity: &VicinityEntry{
				Terms: []string{"Near", " near ", "close"}, Window: 3, ReportAs: "trigger+near",
			}},
			check: func(t *testing.T, r Rule) {
				assert.Equal(t, VicinityRule, r.Kind)
				assert.Equal(t, "trigger+near", r.Label())
				assert.Equal(t, []string{"near", "close"}, r.Vicinity.Terms)
				assert.True(t, r.Vicinity.Has("near"))
				assert.False(t, r.Vicinity.Has("Near"))
			},
		},
		{
			name:  "vicinity label falls back to term",
			entry: Entry{Term: "trigger", Vicinity: &VicinityEntry{Terms: []string{"near"}}},
			check: func(t *testing.T, r Rule) {
				assert.Equal(t, "trigger", r.Vicinity.ReportAs)
				assert.Equal(t, 0, r.Vicinity.Window)
			},
		},
		{name: "empty term", entry: Entry{Term: "  "}, wantErr: ErrEmptyTerm},
		{
			name:    "negative window",
			entry:   Entry{Term: "x", Vicinity: &VicinityEntry{Terms: []string{"y"}, Window: -1}},
			wantErr: ErrNegativeWindow,
		},
		{
			name:    "no vicinity terms",
			entry:   Entry{Term: "x", Vicinity: &VicinityEntry{Terms: []string{"", " "}, Window: 2}},
			wantErr: ErrNoVicinityTerms,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRule(tt.entry)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func TestNew_PreservesOrder(t *testing.T) {
	reg, err := New(
		Entry{Term: "zeta"},
		Entry{Term: "alpha", FailIfFound: true},
		Entry{Term: "mid", Vicinity: &VicinityEntry{Terms: []string{"x"}, Window: 1, ReportAs: "concept"}},
	)
	require.NoError(t, err)

	var terms []string
	for i, rule := range reg.All() {
		assert.Equal(t, len(terms), i)
		terms = append(terms, rule.Term)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, terms)
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"zeta", "alpha", "concept"}, reg.Labels())
}

func TestNew_ReportsAllInvalidEntries(t *testing.T) {
	_, err := New(
		Entry{Term: ""},
		Entry{Term: "ok"},
		Entry{Term: "ok"},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyTerm)
	assert.ErrorIs(t, err, ErrDuplicateTerm)
}

func TestRegistry_LabelsDeduplicate(t *testing.T) {
	reg, err := New(
		Entry{Term: "cat"},
		Entry{Term: "feline", Vicinity: &VicinityEntry{Terms: []string{"pet"}, Window: 2, ReportAs: "cat"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, reg.Labels())
}

func TestRegistry_NilAndEmpty(t *testing.T) {
	var nilReg *Registry
	assert.Equal(t, 0, nilReg.Len())
	assert.Nil(t, nilReg.Labels())
	for range nilReg.All() {
		t.Fatal("nil registry yielded a rule")
	}

	assert.Equal(t, 0, Empty().Len())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "direct", DirectRule.String())
	assert.Equal(t, "vicinity", VicinityRule.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
