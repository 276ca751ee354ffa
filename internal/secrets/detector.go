package secrets

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	gitleaksconfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksregexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// gitleaksSeverity is reported for every finding of the gitleaks rule set,
// which carries no severity of its own.
const gitleaksSeverity = "high"

// detector runs the default gitleaks rule set over short strings.
type detector struct {
	// gitleaks keeps per-scan state on the Detector.
	mu sync.Mutex
	d  *detect.Detector
}

func newDetector(allow []*regexp.Regexp) (*detector, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	if len(allow) > 0 {
		list := &gitleaksconfig.Allowlist{Description: "docguard allow_list"}
		for _, re := range allow {
			list.Regexes = append(list.Regexes, (*gitleaksregexp.Regexp)(re))
		}
		d.Config.Allowlists = append(d.Config.Allowlists, list)
	}
	return &detector{d: d}, nil
}

// detect returns a finding for every occurrence of each secret gitleaks
// reports in text. Offsets are located by value, so they hold for
// multi-line text too.
func (g *detector) detect(text string) []Finding {
	g.mu.Lock()
	found := g.d.DetectString(text)
	g.mu.Unlock()

	var out []Finding
	seen := make(map[string]bool, len(found))
	for _, f := range found {
		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}
		if secret == "" || seen[f.RuleID+"\x00"+secret] {
			continue
		}
		seen[f.RuleID+"\x00"+secret] = true
		for from := 0; ; {
			i := strings.Index(text[from:], secret)
			if i < 0 {
				break
			}
			start := from + i
			out = append(out, Finding{
				RuleID:     f.RuleID,
				Severity:   gitleaksSeverity,
				StartIndex: start,
				EndIndex:   start + len(secret),
			})
			from = start + len(secret)
		}
	}
	return out
}
