// Package search answers queries over an immutable in-memory podcast corpus.
//
// An Engine is built once from a loaded corpus and never mutated afterwards,
// so all of its methods are safe for concurrent use without locking.
package search

import (
	"github.com/RoaringBitmap/roaring/v2"

	"podcast-kb/internal/models"
)

// UnknownHost is rendered when an episode references a host that was not loaded.
const UnknownHost = "Unknown"

type Engine struct {
	episodes    []models.Episode
	hosts       []models.Host
	series      []models.Series
	comments    []models.Comment
	transcripts map[int]string

	episodeByID       map[int]int
	hostByID          map[int]int
	seriesByID        map[int]int
	commentsByEpisode map[int][]int

	// Posting lists of episode positions, so filtered scans keep storage order.
	byHost   map[int]*roaring.Bitmap
	bySeries map[int]*roaring.Bitmap

	opts options
}

func NewEngine(corpus *models.Corpus, opts ...Option) *Engine {
	o := options{
		episodeFuzzyThreshold: DefaultEpisodeFuzzyThreshold,
		hostFuzzyThreshold:    DefaultHostFuzzyThreshold,
	}
	for _, fn := range opts {
		fn(&o)
	}

	if corpus == nil {
		corpus = &models.Corpus{}
	}

	e := &Engine{
		episodes:          corpus.Episodes,
		hosts:             corpus.Hosts,
		series:            corpus.Series,
		comments:          corpus.Comments,
		transcripts:       corpus.Transcripts,
		episodeByID:       make(map[int]int, len(corpus.Episodes)),
		hostByID:          make(map[int]int, len(corpus.Hosts)),
		seriesByID:        make(map[int]int, len(corpus.Series)),
		commentsByEpisode: make(map[int][]int),
		byHost:            make(map[int]*roaring.Bitmap),
		bySeries:          make(map[int]*roaring.Bitmap),
		opts:              o,
	}
	if e.transcripts == nil {
		e.transcripts = map[int]string{}
	}

	for i, ep := range e.episodes {
		e.episodeByID[ep.ID] = i
		addPosting(e.byHost, ep.HostID, i)
		if ep.SeriesID != 0 {
			addPosting(e.bySeries, ep.SeriesID, i)
		}
	}
	for i, h := range e.hosts {
		e.hostByID[h.ID] = i
	}
	for i, s := range e.series {
		e.seriesByID[s.ID] = i
	}
	for i, c := range e.comments {
		e.commentsByEpisode[c.EpisodeID] = append(e.commentsByEpisode[c.EpisodeID], i)
	}

	return e
}

func addPosting(index map[int]*roaring.Bitmap, key, pos int) {
	bm, ok := index[key]
	if !ok {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(uint32(pos))
}

// candidates returns the episode positions satisfying the host and series
// equality filters, in storage order. Zero means "no filter".
func (e *Engine) candidates(hostID, seriesID int) []int {
	var bm *roaring.Bitmap

	if hostID != 0 {
		posting, ok := e.byHost[hostID]
		if !ok {
			return nil
		}
		bm = posting
	}
	if seriesID != 0 {
		posting, ok := e.bySeries[seriesID]
		if !ok {
			return nil
		}
		if bm == nil {
			bm = posting
		} else {
			bm = roaring.And(bm, posting)
		}
	}

	if bm == nil {
		all := make([]int, len(e.episodes))
		for i := range all {
			all[i] = i
		}
		return all
	}

	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
