package search

import (
	"slices"
	"strings"

	"podcast-kb/internal/lexical"
	"podcast-kb/internal/models"
)

// EpisodeFilters narrow the candidate set before any query matching. Zero
// values disable a filter. Dates compare lexicographically, both bounds inclusive.
type EpisodeFilters struct {
	HostID   int
	SeriesID int
	Tag      string
	FromDate string
	ToDate   string
}

// SearchEpisodes returns episodes whose title, summary, tags or notes contain
// query (case-insensitive). Only when that yields nothing and query is
// non-empty does it fall back to fuzzy matching against title words.
func (e *Engine) SearchEpisodes(query string, filters EpisodeFilters, limit int) []models.EpisodeMatch {
	if limit <= 0 {
		limit = DefaultEpisodeLimit
	}

	q := strings.ToLower(strings.TrimSpace(query))
	tag := strings.ToLower(strings.TrimSpace(filters.Tag))

	var filtered []int
	for _, pos := range e.candidates(filters.HostID, filters.SeriesID) {
		ep := &e.episodes[pos]
		if tag != "" && !strings.Contains(strings.ToLower(ep.Tags), tag) {
			continue
		}
		if filters.FromDate != "" && ep.Date < filters.FromDate {
			continue
		}
		if filters.ToDate != "" && ep.Date > filters.ToDate {
			continue
		}
		filtered = append(filtered, pos)
	}

	var results []models.EpisodeMatch
	for _, pos := range filtered {
		ep := e.episodes[pos]
		if q == "" || episodeContains(ep, q) {
			results = append(results, models.EpisodeMatch{Episode: ep, Match: models.MatchExact})
		}
	}

	if len(results) == 0 && q != "" {
		for _, pos := range filtered {
			ep := e.episodes[pos]
			d, ok := closestTitleWord(ep.Title, q)
			if ok && d <= e.opts.episodeFuzzyThreshold {
				results = append(results, models.EpisodeMatch{Episode: ep, Match: models.MatchFuzzy, Distance: d})
			}
		}
		slices.SortStableFunc(results, func(a, b models.EpisodeMatch) int {
			if a.Distance != b.Distance {
				return a.Distance - b.Distance
			}
			return strings.Compare(b.Episode.Date, a.Episode.Date)
		})
	} else {
		slices.SortStableFunc(results, func(a, b models.EpisodeMatch) int {
			return strings.Compare(b.Episode.Date, a.Episode.Date)
		})
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func episodeContains(ep models.Episode, q string) bool {
	return strings.Contains(strings.ToLower(ep.Title), q) ||
		strings.Contains(strings.ToLower(ep.Summary), q) ||
		strings.Contains(strings.ToLower(ep.Tags), q) ||
		strings.Contains(strings.ToLower(ep.Notes), q)
}

// closestTitleWord reports the smallest distance from q to any whitespace
// separated word of title. ok is false for a title with no words.
func closestTitleWord(title, q string) (best int, ok bool) {
	for _, word := range strings.Fields(strings.ToLower(title)) {
		d := lexical.Distance(q, word)
		if !ok || d < best {
			best, ok = d, true
		}
	}
	return best, ok
}
