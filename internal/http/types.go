package http

import "github.com/fyrsmithlabs/docguard/internal/keywords"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Keywords int    `json:"keywords"`
}

// KeywordResponse describes one registry rule for GET /api/v1/keywords.
type KeywordResponse struct {
	Term        string            `json:"term"`
	Label       string            `json:"label"`
	Kind        string            `json:"kind"`
	FailIfFound bool              `json:"fail_if_found"`
	Vicinity    *VicinityResponse `json:"check_vicinity,omitempty"`
}

// VicinityResponse is the proximity clause of a vicinity rule.
type VicinityResponse struct {
	Terms    []string `json:"terms"`
	Window   int      `json:"window"`
	ReportAs string   `json:"report_as_concept"`
}

// ReloadResponse is the response body for POST /api/v1/keywords/reload.
type ReloadResponse struct {
	Keywords int `json:"keywords"`
}

func keywordResponses(reg *keywords.Registry) []KeywordResponse {
	out := make([]KeywordResponse, 0, reg.Len())
	for _, rule := range reg.All() {
		kr := KeywordResponse{
			Term:        rule.Term,
			Label:       rule.Label(),
			Kind:        rule.Kind.String(),
			FailIfFound: rule.FailIfFound,
		}
		if v := rule.Vicinity; v != nil {
			kr.Vicinity = &VicinityResponse{
				Terms:    v.Terms,
				Window:   v.Window,
				ReportAs: v.ReportAs,
			}
		}
		out = append(out, kr)
	}
	return out
}
