// Package repository loads the podcast corpus from its backing store.
package repository

import (
	"context"
	"fmt"
	"slices"

	"podcast-kb/internal/models"
)

// Source produces a complete corpus. Load is called once at startup.
type Source interface {
	Load(ctx context.Context) (*models.Corpus, error)
}

// LoadError describes a record that cannot be served.
type LoadError struct {
	Entity string
	ID     int
	Field  string
	Reason string
}

func (e *LoadError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %d: %s %s", e.Entity, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}

// Validate checks identity and required fields. Dangling host, series and
// comment references are allowed; the engine renders them as unknown.
func Validate(c *models.Corpus) error {
	if c == nil {
		return &LoadError{Entity: "corpus", Reason: "is nil"}
	}

	episodes := make(map[int]struct{}, len(c.Episodes))
	for _, ep := range c.Episodes {
		switch {
		case ep.ID <= 0:
			return &LoadError{Entity: "episode", ID: ep.ID, Field: "id", Reason: "must be positive"}
		case ep.Title == "":
			return &LoadError{Entity: "episode", ID: ep.ID, Field: "title", Reason: "is required"}
		case ep.Date == "":
			return &LoadError{Entity: "episode", ID: ep.ID, Field: "date", Reason: "is required"}
		}
		if _, dup := episodes[ep.ID]; dup {
			return &LoadError{Entity: "episode", ID: ep.ID, Reason: "duplicate id"}
		}
		episodes[ep.ID] = struct{}{}
	}

	hosts := make(map[int]struct{}, len(c.Hosts))
	for _, h := range c.Hosts {
		switch {
		case h.ID <= 0:
			return &LoadError{Entity: "host", ID: h.ID, Field: "hostid", Reason: "must be positive"}
		case h.Name == "":
			return &LoadError{Entity: "host", ID: h.ID, Field: "host", Reason: "is required"}
		}
		if _, dup := hosts[h.ID]; dup {
			return &LoadError{Entity: "host", ID: h.ID, Reason: "duplicate id"}
		}
		hosts[h.ID] = struct{}{}
	}

	series := make(map[int]struct{}, len(c.Series))
	for _, s := range c.Series {
		switch {
		case s.ID <= 0:
			return &LoadError{Entity: "series", ID: s.ID, Field: "id", Reason: "must be positive"}
		case s.Name == "":
			return &LoadError{Entity: "series", ID: s.ID, Field: "name", Reason: "is required"}
		}
		if _, dup := series[s.ID]; dup {
			return &LoadError{Entity: "series", ID: s.ID, Reason: "duplicate id"}
		}
		series[s.ID] = struct{}{}
	}

	// Sorted so the reported id is stable across runs.
	ids := make([]int, 0, len(c.Transcripts))
	for id := range c.Transcripts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if _, ok := episodes[id]; !ok {
			return &LoadError{Entity: "transcript", ID: id, Reason: "references unknown episode"}
		}
	}

	return nil
}
