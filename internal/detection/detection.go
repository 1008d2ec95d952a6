package detection

import "strings"

// Verdict is the authenticity label assigned to an analyzed text.
type Verdict string

const (
	VerdictReal         Verdict = "Real"
	VerdictMostlyReal   Verdict = "Mostly Real"
	VerdictMixed        Verdict = "Mixed"
	VerdictMostlyFake   Verdict = "Mostly Fake"
	VerdictFake         Verdict = "Fake"
	VerdictUnverifiable Verdict = "Unverifiable"
)

var verdicts = []Verdict{
	VerdictReal,
	VerdictMostlyReal,
	VerdictMixed,
	VerdictMostlyFake,
	VerdictFake,
	VerdictUnverifiable,
}

// Verdicts returns the six recognized verdicts in display order.
func Verdicts() []Verdict {
	return append([]Verdict(nil), verdicts...)
}

// ParseVerdict maps s to a recognized verdict. Surrounding whitespace is ignored,
// everything else must match exactly.
func ParseVerdict(s string) (Verdict, bool) {
	s = strings.TrimSpace(s)
	for _, v := range verdicts {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// Valid reports whether v is one of the six recognized verdicts.
func (v Verdict) Valid() bool {
	for _, known := range verdicts {
		if v == known {
			return true
		}
	}
	return false
}

func (v Verdict) String() string { return string(v) }

// GroundingSource is a citation returned by search grounding.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// DetectionResult is the outcome of one analysis.
type DetectionResult struct {
	Verdict         Verdict           `json:"verdict"`
	ConfidenceScore float64           `json:"confidenceScore"`
	Analysis        string            `json:"analysis"`
	KeyFindings     []string          `json:"keyFindings"`
	Sources         []GroundingSource `json:"sources"`
}

// HasSources reports whether the result carries any citation.
func (r *DetectionResult) HasSources() bool {
	return r != nil && len(r.Sources) > 0
}
