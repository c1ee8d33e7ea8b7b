package models

type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// EpisodeMatch is a single episode search hit. Distance is only meaningful
// for fuzzy matches.
type EpisodeMatch struct {
	Episode  Episode   `json:"episode"`
	Match    MatchType `json:"match"`
	Distance int       `json:"distance,omitempty"`
}

type HostMatch struct {
	Host     Host      `json:"host"`
	Match    MatchType `json:"match"`
	Distance int       `json:"distance,omitempty"`
}

type MatchMode string

const (
	MatchAny    MatchMode = "any"
	MatchAll    MatchMode = "all"
	MatchPhrase MatchMode = "phrase"
)

// TranscriptMatch is one matching transcript line plus its surrounding context.
type TranscriptMatch struct {
	LineNumber int      `json:"line_number"` // 1-based
	Terms      []string `json:"terms"`
	Context    string   `json:"context"`
}

type TranscriptMatchSummary struct {
	Mode         MatchMode      `json:"mode"`
	TermsMatched []string       `json:"terms_matched"`
	TotalMatches int            `json:"total_matches"`
	TermHits     map[string]int `json:"term_hits"`
	Truncated    bool           `json:"truncated"`
}

type TranscriptResult struct {
	Episode Episode                `json:"episode"`
	Summary TranscriptMatchSummary `json:"summary"`
	Matches []TranscriptMatch      `json:"matches"`
}
