package search

import "podcast-kb/internal/models"

func (e *Engine) Episode(id int) (models.Episode, bool) {
	pos, ok := e.episodeByID[id]
	if !ok {
		return models.Episode{}, false
	}
	return e.episodes[pos], true
}

func (e *Engine) Host(id int) (models.Host, bool) {
	pos, ok := e.hostByID[id]
	if !ok {
		return models.Host{}, false
	}
	return e.hosts[pos], true
}

func (e *Engine) Series(id int) (models.Series, bool) {
	pos, ok := e.seriesByID[id]
	if !ok {
		return models.Series{}, false
	}
	return e.series[pos], true
}

// HostName resolves a host id for display, tolerating dangling references.
func (e *Engine) HostName(id int) string {
	if h, ok := e.Host(id); ok {
		return h.Name
	}
	return UnknownHost
}

// Transcript returns the transcript of an episode; ok is false when none was loaded.
func (e *Engine) Transcript(episodeID int) (string, bool) {
	text, ok := e.transcripts[episodeID]
	return text, ok
}

func (e *Engine) Comments(episodeID int) []models.Comment {
	positions := e.commentsByEpisode[episodeID]
	out := make([]models.Comment, 0, len(positions))
	for _, pos := range positions {
		out = append(out, e.comments[pos])
	}
	return out
}

func (e *Engine) EpisodesByHost(hostID int) []models.Episode {
	if hostID == 0 {
		return nil
	}
	return e.episodesAt(e.candidates(hostID, 0))
}

func (e *Engine) EpisodesBySeries(seriesID int) []models.Episode {
	if seriesID == 0 {
		return nil
	}
	return e.episodesAt(e.candidates(0, seriesID))
}

func (e *Engine) episodesAt(positions []int) []models.Episode {
	out := make([]models.Episode, 0, len(positions))
	for _, pos := range positions {
		out = append(out, e.episodes[pos])
	}
	return out
}

// Stats counts each entity class and reports the date range of the episodes.
func (e *Engine) Stats() models.Stats {
	s := models.Stats{
		Episodes:    len(e.episodes),
		Hosts:       len(e.hosts),
		Series:      len(e.series),
		Comments:    len(e.comments),
		Transcripts: len(e.transcripts),
	}
	for _, ep := range e.episodes {
		if ep.Date == "" {
			continue
		}
		if s.EarliestDate == "" || ep.Date < s.EarliestDate {
			s.EarliestDate = ep.Date
		}
		if ep.Date > s.LatestDate {
			s.LatestDate = ep.Date
		}
	}
	return s
}
