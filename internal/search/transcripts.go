package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"podcast-kb/internal/models"
)

var ErrInvalidPattern = errors.New("invalid search pattern")

// TranscriptQuery describes a transcript search. Terms, when non-empty, take
// priority over splitting Query.
type TranscriptQuery struct {
	Query                string
	Terms                []string
	Mode                 models.MatchMode
	HostID               int
	HostName             string
	Limit                int
	ContextLines         int
	CaseSensitive        bool
	WholeWord            bool
	MaxMatchesPerEpisode int
}

type termPattern struct {
	term string
	re   *regexp.Regexp
}

var termSeparators = regexp.MustCompile(`[|,;\n]`)

// ResolveTerms returns the search terms for q and the effective match mode.
// An unrecognised mode becomes "any" when several terms resolve and
// "phrase" otherwise. Phrase mode always collapses to a single term.
func ResolveTerms(q TranscriptQuery) ([]string, models.MatchMode) {
	query := strings.TrimSpace(q.Query)

	var terms []string
	switch {
	case len(nonEmpty(q.Terms, q.CaseSensitive)) > 0:
		terms = nonEmpty(q.Terms, q.CaseSensitive)
	case q.Mode == models.MatchAny || q.Mode == models.MatchAll:
		terms = nonEmpty(termSeparators.Split(query, -1), q.CaseSensitive)
	case query != "":
		terms = []string{query}
	}
	if len(terms) == 0 {
		return nil, q.Mode
	}

	mode := q.Mode
	switch mode {
	case models.MatchAny, models.MatchAll, models.MatchPhrase:
	default:
		if len(terms) > 1 {
			mode = models.MatchAny
		} else {
			mode = models.MatchPhrase
		}
	}

	if mode == models.MatchPhrase {
		if query != "" {
			terms = []string{query}
		} else {
			terms = terms[:1]
		}
	}

	return terms, mode
}

// nonEmpty trims, drops blanks and removes duplicate terms. Without
// caseSensitive, terms differing only in case are duplicates and the first
// spelling is kept.
func nonEmpty(in []string, caseSensitive bool) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := s
		if !caseSensitive {
			key = strings.ToLower(s)
		}
		if s != "" && !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

func compileTerms(terms []string, caseSensitive, wholeWord bool) ([]termPattern, error) {
	patterns := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		expr := regexp.QuoteMeta(term)
		if wholeWord {
			expr = `\b` + expr + `\b`
		}
		if !caseSensitive {
			expr = `(?i)` + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, term, err)
		}
		patterns = append(patterns, termPattern{term: term, re: re})
	}
	return patterns, nil
}

// SearchTranscripts scans transcripts line by line in episode storage order
// and stops once Limit episodes have matched. Results are not re-sorted.
func (e *Engine) SearchTranscripts(q TranscriptQuery) ([]models.TranscriptResult, error) {
	terms, mode := ResolveTerms(q)
	if len(terms) == 0 {
		return nil, nil
	}

	patterns, err := compileTerms(terms, q.CaseSensitive, q.WholeWord)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	maxPerEpisode := q.MaxMatchesPerEpisode
	if maxPerEpisode <= 0 {
		maxPerEpisode = DefaultMaxMatchesPerEpisode
	}
	contextLines := max(q.ContextLines, 0)

	var hostSet map[int]bool
	if name := strings.TrimSpace(q.HostName); name != "" {
		hostSet = make(map[int]bool)
		for _, m := range e.SearchHosts(name) {
			hostSet[m.Host.ID] = true
		}
		if len(hostSet) == 0 {
			return nil, nil
		}
	}

	var results []models.TranscriptResult
	for _, ep := range e.episodes {
		if len(results) >= limit {
			break
		}
		if q.HostID != 0 && ep.HostID != q.HostID {
			continue
		}
		if hostSet != nil && !hostSet[ep.HostID] {
			continue
		}
		text, ok := e.transcripts[ep.ID]
		if !ok {
			continue
		}

		res, ok := scanTranscript(text, patterns, mode, contextLines, maxPerEpisode)
		if !ok {
			continue
		}
		res.Episode = ep
		results = append(results, res)
	}

	return results, nil
}

func scanTranscript(text string, patterns []termPattern, mode models.MatchMode, contextLines, maxMatches int) (models.TranscriptResult, bool) {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	res := models.TranscriptResult{
		Summary: models.TranscriptMatchSummary{
			Mode:     mode,
			TermHits: make(map[string]int),
		},
	}
	seen := make(map[string]bool, len(patterns))

	for i, line := range lines {
		var matched []string
		for _, p := range patterns {
			if p.re.MatchString(line) {
				matched = append(matched, p.term)
			}
		}
		if len(matched) == 0 {
			continue
		}
		for _, term := range matched {
			seen[term] = true
		}

		if len(res.Matches) >= maxMatches {
			// Only "all" reads past the cap, to learn whether every term occurs.
			if len(seen) == len(patterns) {
				break
			}
			continue
		}

		for _, term := range matched {
			res.Summary.TermHits[term]++
		}
		start := max(i-contextLines, 0)
		end := min(i+contextLines+1, len(lines))
		res.Matches = append(res.Matches, models.TranscriptMatch{
			LineNumber: i + 1,
			Terms:      matched,
			Context:    strings.Join(lines[start:end], "\n"),
		})

		if len(res.Matches) == maxMatches {
			res.Summary.Truncated = true
			if mode != models.MatchAll || len(seen) == len(patterns) {
				break
			}
		}
	}

	if len(res.Matches) == 0 {
		return res, false
	}
	if mode == models.MatchAll && len(seen) < len(patterns) {
		return res, false
	}

	for _, p := range patterns {
		if seen[p.term] {
			res.Summary.TermsMatched = append(res.Summary.TermsMatched, p.term)
		}
	}
	res.Summary.TotalMatches = len(res.Matches)
	return res, true
}
