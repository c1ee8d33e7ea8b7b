package services

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"podcast-kb/internal/format"
	"podcast-kb/internal/models"
)

const summaryWidth = 200

func (o *Operations) seriesName(id int) string {
	if id == 0 {
		return ""
	}
	if s, found := o.engine.Series(id); found {
		return s.Name
	}
	return fmt.Sprintf("Unknown series (%d)", id)
}

func (o *Operations) episodeHeadline(b *strings.Builder, ep models.Episode) {
	fmt.Fprintf(b, "%s: %s\n", format.EpisodeCode(ep.ID), ep.Title)
	fmt.Fprintf(b, "  Host: %s | Date: %s | Duration: %s\n",
		o.engine.HostName(ep.HostID), ep.Date, format.Duration(ep.Duration))
	if name := o.seriesName(ep.SeriesID); name != "" {
		fmt.Fprintf(b, "  Series: %s\n", name)
	}
	if ep.Tags != "" {
		fmt.Fprintf(b, "  Tags: %s\n", ep.Tags)
	}
}

func (o *Operations) renderEpisodeMatches(query string, matches []models.EpisodeMatch) string {
	var b strings.Builder

	if len(matches) == 0 {
		if query == "" {
			return "No episodes found."
		}
		return fmt.Sprintf("No episodes found matching %q.", query)
	}

	switch {
	case matches[0].Match == models.MatchFuzzy:
		fmt.Fprintf(&b, "No exact matches for %q; %d similar %s:\n",
			query, len(matches), plural(len(matches), "title", "titles"))
	case query == "":
		fmt.Fprintf(&b, "Found %d %s:\n", len(matches), plural(len(matches), "episode", "episodes"))
	default:
		fmt.Fprintf(&b, "Found %d %s matching %q:\n",
			len(matches), plural(len(matches), "episode", "episodes"), query)
	}

	for _, m := range matches {
		b.WriteString("\n")
		o.episodeHeadline(&b, m.Episode)
		if m.Match == models.MatchFuzzy {
			fmt.Fprintf(&b, "  Match: fuzzy (distance %d)\n", m.Distance)
		}
		if summary := format.StripHTML(m.Episode.Summary); summary != "" {
			fmt.Fprintf(&b, "  %s\n", format.Truncate(summary, summaryWidth))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (o *Operations) renderEpisode(ep models.Episode, includeTranscript, includeComments bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: %s\n\n", format.EpisodeCode(ep.ID), ep.Title)
	fmt.Fprintf(&b, "Host: %s\n", o.engine.HostName(ep.HostID))
	fmt.Fprintf(&b, "Date: %s\n", ep.Date)
	fmt.Fprintf(&b, "Duration: %s\n", format.Duration(ep.Duration))
	if name := o.seriesName(ep.SeriesID); name != "" {
		fmt.Fprintf(&b, "Series: %s\n", name)
	}
	if ep.Tags != "" {
		fmt.Fprintf(&b, "Tags: %s\n", ep.Tags)
	}
	if ep.License != "" {
		fmt.Fprintf(&b, "License: %s\n", ep.License)
	}
	fmt.Fprintf(&b, "Downloads: %s\n", humanize.Comma(int64(ep.Downloads)))

	if summary := format.StripHTML(ep.Summary); summary != "" {
		fmt.Fprintf(&b, "\n## Summary\n%s\n", summary)
	}
	if notes := format.StripHTML(ep.Notes); notes != "" {
		fmt.Fprintf(&b, "\n## Show notes\n%s\n", notes)
	}

	if includeComments {
		comments := o.engine.Comments(ep.ID)
		fmt.Fprintf(&b, "\n## Comments (%d)\n", len(comments))
		for _, c := range comments {
			fmt.Fprintf(&b, "- %s (%s): %s\n", c.Author, c.Timestamp, c.Title)
			if text := format.StripHTML(c.Text); text != "" {
				fmt.Fprintf(&b, "  %s\n", strings.ReplaceAll(text, "\n", "\n  "))
			}
		}
	}

	if includeTranscript {
		b.WriteString("\n## Transcript\n")
		if text, found := o.engine.Transcript(ep.ID); found {
			b.WriteString(strings.TrimRight(text, "\r\n"))
			b.WriteString("\n")
		} else {
			b.WriteString("No transcript available.\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (o *Operations) renderTranscriptResults(terms []string, mode models.MatchMode, results []models.TranscriptResult) string {
	var b strings.Builder

	if len(results) == 0 {
		if len(terms) == 0 {
			return "No search terms given."
		}
		return fmt.Sprintf("No transcript matches for %s (mode: %s).", quoteTerms(terms), mode)
	}

	fmt.Fprintf(&b, "Found matches in %d %s for %s (mode: %s):\n",
		len(results), plural(len(results), "episode", "episodes"), quoteTerms(terms), mode)

	for _, r := range results {
		fmt.Fprintf(&b, "\n%s: %s (%s, %s)\n",
			format.EpisodeCode(r.Episode.ID), r.Episode.Title, o.engine.HostName(r.Episode.HostID), r.Episode.Date)

		hits := make([]string, 0, len(r.Summary.TermsMatched))
		for _, term := range r.Summary.TermsMatched {
			hits = append(hits, fmt.Sprintf("%s: %d", term, r.Summary.TermHits[term]))
		}
		fmt.Fprintf(&b, "  %d matching %s (%s)", r.Summary.TotalMatches,
			plural(r.Summary.TotalMatches, "line", "lines"), strings.Join(hits, ", "))
		if r.Summary.Truncated {
			b.WriteString(", more not shown")
		}
		b.WriteString("\n")

		for _, m := range r.Matches {
			fmt.Fprintf(&b, "  --- line %d [%s] ---\n", m.LineNumber, strings.Join(m.Terms, ", "))
			for _, line := range strings.Split(m.Context, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (o *Operations) writeHost(b *strings.Builder, h models.Host, includeEpisodes bool) {
	fmt.Fprintf(b, "Host: %s (ID %d)\n", h.Name, h.ID)
	if h.Email != "" {
		fmt.Fprintf(b, "Email: %s\n", h.Email)
	}
	if h.License != "" {
		fmt.Fprintf(b, "License: %s\n", h.License)
	}
	if profile := format.StripHTML(h.Profile); profile != "" {
		fmt.Fprintf(b, "Profile: %s\n", profile)
	}

	episodes := o.engine.EpisodesByHost(h.ID)
	if !includeEpisodes {
		fmt.Fprintf(b, "Episodes: %d\n", len(episodes))
		return
	}
	fmt.Fprintf(b, "Episodes (%d):\n", len(episodes))
	for _, ep := range episodes {
		fmt.Fprintf(b, "  %s %s %s\n", format.EpisodeCode(ep.ID), ep.Date, ep.Title)
	}
}

func (o *Operations) renderHost(h models.Host, includeEpisodes bool) string {
	var b strings.Builder
	o.writeHost(&b, h, includeEpisodes)
	return strings.TrimRight(b.String(), "\n")
}

func (o *Operations) renderHostMatches(name string, matches []models.HostMatch, includeEpisodes bool) string {
	if len(matches) == 1 {
		return o.renderHost(matches[0].Host, includeEpisodes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d hosts matching %q:\n", len(matches), name)
	for _, m := range matches {
		b.WriteString("\n")
		o.writeHost(&b, m.Host, includeEpisodes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (o *Operations) renderSeries(s models.Series) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Series: %s (ID %d)\n", s.Name, s.ID)
	if desc := format.StripHTML(s.Description); desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}

	episodes := o.engine.EpisodesBySeries(s.ID)
	fmt.Fprintf(&b, "Episodes (%d):\n", len(episodes))
	for _, ep := range episodes {
		fmt.Fprintf(&b, "  %s %s %s by %s\n",
			format.EpisodeCode(ep.ID), ep.Date, ep.Title, o.engine.HostName(ep.HostID))
	}

	return strings.TrimRight(b.String(), "\n")
}

func quoteTerms(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
