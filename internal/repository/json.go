package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"podcast-kb/internal/models"
)

// JSONSource reads a corpus exported as JSON files plus a directory of
// plain-text transcripts.
type JSONSource struct {
	Dir string
}

func NewJSONSource(dir string) *JSONSource {
	return &JSONSource{Dir: dir}
}

func (s *JSONSource) Load(ctx context.Context) (*models.Corpus, error) {
	corpus := &models.Corpus{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readJSON(ctx, "episodes.json", &corpus.Episodes) })
	g.Go(func() error { return s.readJSON(ctx, "hosts.json", &corpus.Hosts) })
	g.Go(func() error { return s.readJSON(ctx, "series.json", &corpus.Series) })
	g.Go(func() error { return s.readJSON(ctx, "comments.json", &corpus.Comments) })
	g.Go(func() error {
		transcripts, err := s.readTranscripts(ctx)
		corpus.Transcripts = transcripts
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return corpus, nil
}

func (s *JSONSource) readJSON(ctx context.Context, name string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (s *JSONSource) readTranscripts(ctx context.Context) (map[int]string, error) {
	transcripts := make(map[int]string)

	dir := filepath.Join(s.Dir, "transcripts")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return transcripts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcripts directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		id, ok := transcriptID(entry.Name())
		if !ok {
			continue
		}
		if _, dup := transcripts[id]; dup {
			return nil, &LoadError{Entity: "transcript", ID: id, Reason: "duplicate id"}
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript %s: %w", entry.Name(), err)
		}
		transcripts[id] = string(body)
	}

	return transcripts, nil
}

// transcriptID accepts "hpr0042.txt" and "42.txt".
func transcriptID(name string) (int, bool) {
	base, ok := strings.CutSuffix(strings.ToLower(name), ".txt")
	if !ok {
		return 0, false
	}
	base = strings.TrimPrefix(base, "hpr")
	id, err := strconv.Atoi(base)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
