package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-kb/internal/models"
)

func testCorpus() *models.Corpus {
	return &models.Corpus{
		Hosts: []models.Host{
			{ID: 1, Name: "klaatu", Email: "klaatu@example.org", Valid: true},
			{ID: 2, Name: "Ken Fallon", Email: "ken@example.com", Valid: true},
			{ID: 3, Name: "Dave", Email: "dave@example.net", Valid: true},
		},
		Series: []models.Series{
			{ID: 10, Name: "Gardening Tips", Valid: true},
		},
		Episodes: []models.Episode{
			{ID: 1, Title: "Installing Linux on a laptop", Summary: "Getting Debian running", Tags: "linux,debian", HostID: 1, Date: "2020-01-10"},
			{ID: 2, Title: "Gardening tomatoes", Summary: "Growing food", Tags: "garden", HostID: 2, SeriesID: 10, Date: "2021-05-01"},
			{ID: 3, Title: "Virtual machines explained", Summary: "QEMU and KVM", Tags: "virtualization,kvm", HostID: 1, Date: "2022-03-15"},
			{ID: 4, Title: "Composting basics", Summary: "Soil", Tags: "Garden,compost", HostID: 2, SeriesID: 10, Date: "2019-07-20"},
			{ID: 5, Title: "Buying a laptop", Summary: "Hardware choices", Tags: "hardware", HostID: 99, Date: "2023-01-01"},
		},
		Comments: []models.Comment{
			{EpisodeID: 1, Author: "reader", Text: "Great show"},
			{EpisodeID: 1, Author: "other", Text: "Thanks"},
			{EpisodeID: 777, Author: "ghost", Text: "dangling"},
		},
		Transcripts: map[int]string{
			1: strings.Join([]string{
				"Welcome to the show",
				"Today we talk about alpha testing",
				"and a virtual machine demo",
				"alpha again",
				"the end",
			}, "\n"),
			3: strings.Join([]string{
				"virtual hosts and a machine room",
				"alpha and beta releases",
				"this is a virtual machine",
			}, "\r\n"),
			5: strings.Repeat("my laptop line\n", 4) + "last laptop line",
		},
	}
}

func episodeIDs(matches []models.EpisodeMatch) []int {
	var ids []int
	for _, m := range matches {
		ids = append(ids, m.Episode.ID)
	}
	return ids
}

func transcriptIDs(results []models.TranscriptResult) []int {
	var ids []int
	for _, r := range results {
		ids = append(ids, r.Episode.ID)
	}
	return ids
}

func TestSearchEpisodes_ExactSuppressesFuzzy(t *testing.T) {
	e := NewEngine(testCorpus())

	got := e.SearchEpisodes("DEBIAN", EpisodeFilters{}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Episode.ID)
	assert.Equal(t, models.MatchExact, got[0].Match)
	assert.Zero(t, got[0].Distance)
}

func TestSearchEpisodes_ExactSortedByDateDesc(t *testing.T) {
	e := NewEngine(testCorpus())

	got := e.SearchEpisodes("", EpisodeFilters{}, 0)
	assert.Equal(t, []int{5, 3, 2, 1, 4}, episodeIDs(got))

	got = e.SearchEpisodes("laptop", EpisodeFilters{}, 0)
	assert.Equal(t, []int{5, 1}, episodeIDs(got))
}

func TestSearchEpisodes_FuzzyFallback(t *testing.T) {
	e := NewEngine(testCorpus())

	got := e.SearchEpisodes("linx", EpisodeFilters{}, 0)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].Episode.ID)
	assert.Equal(t, models.MatchFuzzy, got[0].Match)
	assert.Equal(t, 1, got[0].Distance)
	assert.NotContains(t, episodeIDs(got), 2, "closest title word of episode 2 is beyond the threshold")
}

func TestSearchEpisodes_FuzzyOrdering(t *testing.T) {
	corpus := &models.Corpus{Episodes: []models.Episode{
		{ID: 1, Title: "Rusty gears", Date: "2024-01-01"},
		{ID: 2, Title: "Rust basics", Date: "2020-01-01"},
		{ID: 3, Title: "Another laptip", Date: "2021-01-01"},
		{ID: 4, Title: "Old laptip", Date: "2022-01-01"},
	}}
	e := NewEngine(corpus, WithEpisodeFuzzyThreshold(2))

	got := e.SearchEpisodes("rost", EpisodeFilters{}, 0)
	require.Len(t, got, 2)
	assert.Equal(t, []int{2, 1}, episodeIDs(got), "better distance beats a newer date")
	assert.Equal(t, 1, got[0].Distance)
	assert.Equal(t, 2, got[1].Distance)

	got = e.SearchEpisodes("laptop", EpisodeFilters{}, 0)
	assert.Equal(t, []int{4, 3}, episodeIDs(got), "equal distance falls back to newest first")
}

func TestSearchEpisodes_Filters(t *testing.T) {
	e := NewEngine(testCorpus())

	tests := []struct {
		name    string
		query   string
		filters EpisodeFilters
		want    []int
	}{
		{"host", "", EpisodeFilters{HostID: 1}, []int{3, 1}},
		{"series", "", EpisodeFilters{SeriesID: 10}, []int{2, 4}},
		{"host and series", "", EpisodeFilters{HostID: 1, SeriesID: 10}, nil},
		{"unknown host", "", EpisodeFilters{HostID: 42}, nil},
		{"tag case insensitive", "", EpisodeFilters{Tag: "GARDEN"}, []int{2, 4}},
		{"date range inclusive", "", EpisodeFilters{FromDate: "2020-01-10", ToDate: "2022-03-15"}, []int{3, 2, 1}},
		{"filters and query combine", "soil", EpisodeFilters{SeriesID: 10}, []int{4}},
		{"filtered fuzzy", "tomatos", EpisodeFilters{HostID: 2}, []int{2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, episodeIDs(e.SearchEpisodes(tc.query, tc.filters, 0)))
		})
	}
}

func TestSearchEpisodes_Limit(t *testing.T) {
	e := NewEngine(testCorpus())

	got := e.SearchEpisodes("", EpisodeFilters{}, 2)
	assert.Equal(t, []int{5, 3}, episodeIDs(got))
}

func TestSearchHosts(t *testing.T) {
	e := NewEngine(testCorpus())

	t.Run("exact by name", func(t *testing.T) {
		got := e.SearchHosts("fallon")
		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].Host.ID)
		assert.Equal(t, models.MatchExact, got[0].Match)
	})

	t.Run("exact by email", func(t *testing.T) {
		got := e.SearchHosts("example.net")
		require.Len(t, got, 1)
		assert.Equal(t, 3, got[0].Host.ID)
	})

	t.Run("fuzzy fallback", func(t *testing.T) {
		got := e.SearchHosts("klattu")
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].Host.ID)
		assert.Equal(t, models.MatchFuzzy, got[0].Match)
		assert.Equal(t, 1, got[0].Distance)
	})

	t.Run("nothing within threshold", func(t *testing.T) {
		assert.Empty(t, e.SearchHosts("xyzabc"))
	})

	t.Run("exact never mixed with fuzzy", func(t *testing.T) {
		got := e.SearchHosts("Dave")
		require.Len(t, got, 1)
		for _, m := range got {
			assert.Equal(t, models.MatchExact, m.Match)
		}
	})
}

func TestResolveTerms(t *testing.T) {
	tests := []struct {
		name      string
		q         TranscriptQuery
		wantTerms []string
		wantMode  models.MatchMode
	}{
		{"explicit terms win", TranscriptQuery{Query: "ignored", Terms: []string{"a", " b "}, Mode: models.MatchAll}, []string{"a", "b"}, models.MatchAll},
		{"split query for any", TranscriptQuery{Query: "alpha|beta, gamma;delta", Mode: models.MatchAny}, []string{"alpha", "beta", "gamma", "delta"}, models.MatchAny},
		{"phrase keeps whole query", TranscriptQuery{Query: " virtual machine ", Mode: models.MatchPhrase}, []string{"virtual machine"}, models.MatchPhrase},
		{"unknown mode single term", TranscriptQuery{Query: "alpha|beta"}, []string{"alpha|beta"}, models.MatchPhrase},
		{"unknown mode many terms", TranscriptQuery{Terms: []string{"a", "b"}, Mode: "auto"}, []string{"a", "b"}, models.MatchAny},
		{"phrase from first term", TranscriptQuery{Terms: []string{"first", "second"}, Mode: models.MatchPhrase}, []string{"first"}, models.MatchPhrase},
		{"duplicates removed", TranscriptQuery{Terms: []string{"a", "a"}, Mode: models.MatchAll}, []string{"a"}, models.MatchAll},
		{"case-insensitive duplicates removed", TranscriptQuery{Terms: []string{"Alpha", "alpha"}, Mode: models.MatchAny}, []string{"Alpha"}, models.MatchAny},
		{"case-sensitive duplicates kept", TranscriptQuery{Terms: []string{"Alpha", "alpha"}, Mode: models.MatchAny, CaseSensitive: true}, []string{"Alpha", "alpha"}, models.MatchAny},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			terms, mode := ResolveTerms(tc.q)
			assert.Equal(t, tc.wantTerms, terms)
			assert.Equal(t, tc.wantMode, mode)
		})
	}
}

func TestSearchTranscripts_NoTerms(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Query: "  ", Mode: models.MatchAny})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchTranscripts_AllVersusAny(t *testing.T) {
	e := NewEngine(testCorpus())
	terms := []string{"alpha", "beta"}

	all, err := e.SearchTranscripts(TranscriptQuery{Terms: terms, Mode: models.MatchAll})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, transcriptIDs(all))
	assert.Equal(t, []string{"alpha", "beta"}, all[0].Summary.TermsMatched)

	anyRes, err := e.SearchTranscripts(TranscriptQuery{Terms: terms, Mode: models.MatchAny})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, transcriptIDs(anyRes))
	assert.Equal(t, 2, anyRes[0].Summary.TermHits["alpha"])
	assert.Equal(t, []string{"alpha"}, anyRes[0].Summary.TermsMatched)
}

func TestSearchTranscripts_CaseInsensitiveDuplicateTerms(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Terms: []string{"Alpha", "alpha"}, Mode: models.MatchAny})
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, transcriptIDs(got))
	assert.Equal(t, []string{"Alpha"}, got[0].Summary.TermsMatched)
	assert.Equal(t, map[string]int{"Alpha": 2}, got[0].Summary.TermHits)
}

func TestSearchTranscripts_Phrase(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Query: "virtual machine", Mode: models.MatchPhrase})
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, transcriptIDs(got))

	for _, r := range got {
		require.Len(t, r.Matches, 1)
	}
	assert.Equal(t, 3, got[0].Matches[0].LineNumber)
	assert.Equal(t, 3, got[1].Matches[0].LineNumber, "line 1 has both words but not the phrase")
}

func TestSearchTranscripts_PerEpisodeCap(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Query: "laptop", MaxMatchesPerEpisode: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Matches, 2)
	assert.Equal(t, 2, got[0].Summary.TotalMatches)
	assert.True(t, got[0].Summary.Truncated)

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "laptop", MaxMatchesPerEpisode: 5})
	require.NoError(t, err)
	assert.Len(t, got[0].Matches, 5)
	assert.True(t, got[0].Summary.Truncated, "cap reached exactly")

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "laptop", MaxMatchesPerEpisode: 6})
	require.NoError(t, err)
	assert.Len(t, got[0].Matches, 5)
	assert.False(t, got[0].Summary.Truncated)
}

func TestScanTranscript_ExactlyAtCap(t *testing.T) {
	patterns, err := compileTerms([]string{"alpha"}, false, false)
	require.NoError(t, err)

	res, ok := scanTranscript("alpha\nalpha\nx", patterns, models.MatchPhrase, 0, 2)
	require.True(t, ok)
	assert.Len(t, res.Matches, 2)
	assert.True(t, res.Summary.Truncated)
}

func TestScanTranscript_AllReadsPastCapForCoverage(t *testing.T) {
	patterns, err := compileTerms([]string{"alpha", "beta"}, false, false)
	require.NoError(t, err)

	res, ok := scanTranscript("alpha\nalpha\nalpha\nbeta", patterns, models.MatchAll, 0, 2)
	require.True(t, ok)
	assert.Len(t, res.Matches, 2)
	assert.True(t, res.Summary.Truncated)
	assert.Equal(t, []string{"alpha", "beta"}, res.Summary.TermsMatched)
	assert.Equal(t, 2, res.Summary.TermHits["alpha"])
}

func TestSearchTranscripts_Context(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Query: "welcome", ContextLines: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Welcome to the show\nToday we talk about alpha testing", got[0].Matches[0].Context)

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "alpha again", ContextLines: 1})
	require.NoError(t, err)
	assert.Equal(t, "and a virtual machine demo\nalpha again\nthe end", got[0].Matches[0].Context)
}

func TestSearchTranscripts_CaseAndWholeWord(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Query: "WELCOME", CaseSensitive: true})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "alph", WholeWord: true})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "alph"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, transcriptIDs(got))
}

func TestSearchTranscripts_HostFiltersAndLimit(t *testing.T) {
	e := NewEngine(testCorpus())

	got, err := e.SearchTranscripts(TranscriptQuery{Query: "line", HostName: "klattu"})
	require.NoError(t, err)
	assert.Empty(t, got, "episode 5 belongs to an unknown host")

	got, err = e.SearchTranscripts(TranscriptQuery{Terms: []string{"alpha", "laptop"}, Mode: models.MatchAny, HostID: 99})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, transcriptIDs(got))

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "alpha", HostName: "klattu"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, transcriptIDs(got))

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "alpha", HostName: "nobody-at-all"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.SearchTranscripts(TranscriptQuery{Query: "alpha", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, transcriptIDs(got))
}

func TestLookups(t *testing.T) {
	e := NewEngine(testCorpus())

	ep, ok := e.Episode(3)
	require.True(t, ok)
	assert.Equal(t, "Virtual machines explained", ep.Title)

	_, ok = e.Episode(404)
	assert.False(t, ok)

	assert.Equal(t, "klaatu", e.HostName(1))
	assert.Equal(t, UnknownHost, e.HostName(99))

	s, ok := e.Series(10)
	require.True(t, ok)
	assert.Equal(t, "Gardening Tips", s.Name)

	_, ok = e.Transcript(2)
	assert.False(t, ok)

	assert.Len(t, e.Comments(1), 2)
	assert.Empty(t, e.Comments(2))
	assert.Len(t, e.Comments(777), 1, "dangling comments are still indexed")

	var hostEps []int
	for _, ep := range e.EpisodesByHost(1) {
		hostEps = append(hostEps, ep.ID)
	}
	assert.Equal(t, []int{1, 3}, hostEps)

	var seriesEps []int
	for _, ep := range e.EpisodesBySeries(10) {
		seriesEps = append(seriesEps, ep.ID)
	}
	assert.Equal(t, []int{2, 4}, seriesEps)
	assert.Empty(t, e.EpisodesBySeries(0))
}

func TestStats(t *testing.T) {
	e := NewEngine(testCorpus())

	s := e.Stats()
	assert.Equal(t, 5, s.Episodes)
	assert.Equal(t, 3, s.Hosts)
	assert.Equal(t, 1, s.Series)
	assert.Equal(t, 3, s.Comments)
	assert.Equal(t, 3, s.Transcripts)
	assert.Equal(t, "2019-07-20", s.EarliestDate)
	assert.Equal(t, "2023-01-01", s.LatestDate)
}

func TestNewEngine_NilCorpus(t *testing.T) {
	e := NewEngine(nil)

	assert.Empty(t, e.SearchEpisodes("x", EpisodeFilters{}, 0))
	assert.Empty(t, e.SearchHosts("x"))
	assert.Equal(t, models.Stats{}, e.Stats())
}
