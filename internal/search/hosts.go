package search

import (
	"slices"
	"strings"

	"podcast-kb/internal/lexical"
	"podcast-kb/internal/models"
)

// SearchHosts matches query as a case-insensitive substring of host name or
// email. Fuzzy matching runs only when there is no substring hit at all, so a
// response never mixes exact and fuzzy matches.
func (e *Engine) SearchHosts(query string) []models.HostMatch {
	q := strings.ToLower(strings.TrimSpace(query))

	var exact []models.HostMatch
	for _, h := range e.hosts {
		if strings.Contains(strings.ToLower(h.Name), q) || strings.Contains(strings.ToLower(h.Email), q) {
			exact = append(exact, models.HostMatch{Host: h, Match: models.MatchExact})
		}
	}
	if len(exact) > 0 {
		return exact
	}

	var fuzzy []models.HostMatch
	for _, h := range e.hosts {
		d := min(
			lexical.Distance(q, strings.ToLower(h.Name)),
			lexical.Distance(q, strings.ToLower(h.Email)),
		)
		if d <= e.opts.hostFuzzyThreshold {
			fuzzy = append(fuzzy, models.HostMatch{Host: h, Match: models.MatchFuzzy, Distance: d})
		}
	}
	slices.SortStableFunc(fuzzy, func(a, b models.HostMatch) int {
		return a.Distance - b.Distance
	})
	return fuzzy
}
