// Package services exposes the corpus as named operations that take a loose
// argument bag and return a textual result.
package services

import (
	"context"
	"log"
	"slices"
	"strings"

	"podcast-kb/internal/models"
	"podcast-kb/internal/search"
)

const (
	MethodSearchEpisodes    = "search_episodes"
	MethodGetEpisode        = "get_episode"
	MethodSearchTranscripts = "search_transcripts"
	MethodGetHostInfo       = "get_host_info"
	MethodGetSeriesInfo     = "get_series_info"

	CodeCanceled = "CANCELED"

	defaultContextLines = 3
)

type handlerFunc func(args map[string]any) (string, error)

type Operations struct {
	engine   *search.Engine
	handlers map[string]handlerFunc
}

func NewOperations(engine *search.Engine) *Operations {
	o := &Operations{engine: engine}
	o.handlers = map[string]handlerFunc{
		MethodSearchEpisodes:    o.searchEpisodes,
		MethodGetEpisode:        o.getEpisode,
		MethodSearchTranscripts: o.searchTranscripts,
		MethodGetHostInfo:       o.getHostInfo,
		MethodGetSeriesInfo:     o.getSeriesInfo,
	}
	return o
}

// Methods lists the operation names Dispatch understands.
func (o *Operations) Methods() []string {
	names := make([]string, 0, len(o.handlers))
	for name := range o.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs the named operation. Failures of any kind, panics included,
// come back as an error Result.
func (o *Operations) Dispatch(ctx context.Context, method string, args map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("✗ Operation %s panicked: %v", method, r)
			res = Result{Text: "An unexpected error occurred", IsError: true, Code: CodeInternal}
		}
	}()

	if ctx.Err() != nil {
		return Result{Text: "Request was canceled", IsError: true, Code: CodeCanceled}
	}

	handler, found := o.handlers[method]
	if !found {
		return Result{Text: "Unknown method: " + method, IsError: true, Code: CodeMethodNotFound}
	}
	if args == nil {
		args = map[string]any{}
	}

	text, err := handler(args)
	if err != nil {
		res = errorResult(err)
		if res.Code == CodeInternal {
			log.Printf("✗ Operation %s failed: %v", method, err)
		}
		return res
	}
	return ok(text)
}

// Stats summarises the loaded corpus.
func (o *Operations) Stats() models.Stats {
	return o.engine.Stats()
}

func (o *Operations) searchEpisodes(args map[string]any) (string, error) {
	var a searchEpisodesArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if err := a.validate(); err != nil {
		return "", err
	}

	matches := o.engine.SearchEpisodes(a.Query, search.EpisodeFilters{
		HostID:   a.HostID,
		SeriesID: a.SeriesID,
		Tag:      a.Tag,
		FromDate: a.FromDate,
		ToDate:   a.ToDate,
	}, a.Limit)

	return o.renderEpisodeMatches(strings.TrimSpace(a.Query), matches), nil
}

func (o *Operations) getEpisode(args map[string]any) (string, error) {
	var a getEpisodeArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if a.EpisodeID <= 0 {
		return "", invalid("episodeId", "must be a positive episode number")
	}

	ep, found := o.engine.Episode(a.EpisodeID)
	if !found {
		return "", notFound("Episode %d not found", a.EpisodeID)
	}

	return o.renderEpisode(ep, boolOr(a.IncludeTranscript, true), boolOr(a.IncludeComments, true)), nil
}

func (o *Operations) searchTranscripts(args map[string]any) (string, error) {
	var a searchTranscriptsArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if err := a.validate(); err != nil {
		return "", err
	}

	contextLines := defaultContextLines
	if a.ContextLines != nil {
		contextLines = *a.ContextLines
	}

	q := search.TranscriptQuery{
		Query:                a.Query,
		Terms:                a.Terms,
		Mode:                 models.MatchMode(strings.ToLower(strings.TrimSpace(a.MatchMode))),
		HostID:               a.HostID,
		HostName:             a.HostName,
		Limit:                a.Limit,
		ContextLines:         contextLines,
		CaseSensitive:        a.CaseSensitive,
		WholeWord:            a.WholeWord,
		MaxMatchesPerEpisode: a.MaxMatchesPerEpisode,
	}

	results, err := o.engine.SearchTranscripts(q)
	if err != nil {
		return "", err
	}

	terms, mode := search.ResolveTerms(q)
	return o.renderTranscriptResults(terms, mode, results), nil
}

func (o *Operations) getHostInfo(args map[string]any) (string, error) {
	var a getHostInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	includeEpisodes := boolOr(a.IncludeEpisodes, true)

	if a.HostID > 0 {
		host, found := o.engine.Host(a.HostID)
		if !found {
			return "", notFound("Host %d not found", a.HostID)
		}
		return o.renderHost(host, includeEpisodes), nil
	}

	name := strings.TrimSpace(a.HostName)
	if name == "" {
		return "", invalid("hostId", "hostId or hostName is required")
	}

	matches := o.engine.SearchHosts(name)
	if len(matches) == 0 {
		return "", notFound("No host found matching %q", name)
	}
	return o.renderHostMatches(name, matches, includeEpisodes), nil
}

func (o *Operations) getSeriesInfo(args map[string]any) (string, error) {
	var a getSeriesInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if a.SeriesID <= 0 {
		return "", invalid("seriesId", "must be a positive series id")
	}

	series, found := o.engine.Series(a.SeriesID)
	if !found {
		return "", notFound("Series %d not found", a.SeriesID)
	}
	return o.renderSeries(series), nil
}
