package secrets

// Result is the outcome of redacting one text.
type Result struct {
	Scrubbed string `json:"scrubbed"`

	// Findings never carry the matched value.
	Findings []Finding `json:"findings,omitempty"`

	// ByRule maps rule IDs to finding counts.
	ByRule map[string]int `json:"by_rule,omitempty"`
}

// Finding locates one detected value in the original text.
type Finding struct {
	RuleID     string `json:"rule_id"`
	Severity   string `json:"severity"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// HasFindings returns true if anything was redacted.
func (r *Result) HasFindings() bool {
	return len(r.Findings) > 0
}
