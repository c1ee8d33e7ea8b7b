package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"podcast-kb/internal/models"
)

const (
	episodesQuery = `SELECT id, date, title, duration, summary, notes, hostid, series, tags, license, downloads
		FROM eps ORDER BY id`
	hostsQuery       = `SELECT hostid, host, email, license, profile, valid FROM hosts ORDER BY hostid`
	seriesQuery      = `SELECT id, name, description, private, valid FROM miniseries ORDER BY id`
	commentsQuery    = `SELECT eps_id, comment_timestamp, comment_author_name, comment_title, comment_text
		FROM comments ORDER BY eps_id, comment_timestamp, id`
	transcriptsQuery = `SELECT eps_id, body FROM transcripts`
)

// rows is the common surface of database/sql and pgx result sets.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// querier runs one query and hands back its rows plus a closer.
type querier func(ctx context.Context, query string) (rows, func(), error)

// SQLSource reads the corpus through database/sql, typically SQLite.
type SQLSource struct {
	db *sql.DB
}

func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

func (s *SQLSource) Load(ctx context.Context) (*models.Corpus, error) {
	query := func(ctx context.Context, q string) (rows, func(), error) {
		r, err := s.db.QueryContext(ctx, q)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'transcripts'").Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	return loadTables(ctx, query, exists > 0)
}

// PostgresSource reads the corpus from a Postgres database.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Load(ctx context.Context) (*models.Corpus, error) {
	query := func(ctx context.Context, q string) (rows, func(), error) {
		r, err := s.pool.Query(ctx, q)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, "SELECT to_regclass('transcripts') IS NOT NULL").Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	return loadTables(ctx, query, exists)
}

func loadTables(ctx context.Context, query querier, withTranscripts bool) (*models.Corpus, error) {
	corpus := &models.Corpus{Transcripts: make(map[int]string)}

	err := scanAll(ctx, query, episodesQuery, func(r rows) error {
		var ep models.Episode
		if err := r.Scan(&ep.ID, &ep.Date, &ep.Title, &ep.Duration, &ep.Summary, &ep.Notes,
			&ep.HostID, &ep.SeriesID, &ep.Tags, &ep.License, &ep.Downloads); err != nil {
			return err
		}
		corpus.Episodes = append(corpus.Episodes, ep)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load episodes: %w", err)
	}

	err = scanAll(ctx, query, hostsQuery, func(r rows) error {
		var h models.Host
		var valid int
		if err := r.Scan(&h.ID, &h.Name, &h.Email, &h.License, &h.Profile, &valid); err != nil {
			return err
		}
		h.Valid = valid != 0
		corpus.Hosts = append(corpus.Hosts, h)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load hosts: %w", err)
	}

	err = scanAll(ctx, query, seriesQuery, func(r rows) error {
		var s models.Series
		var private, valid int
		if err := r.Scan(&s.ID, &s.Name, &s.Description, &private, &valid); err != nil {
			return err
		}
		s.Private, s.Valid = private != 0, valid != 0
		corpus.Series = append(corpus.Series, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}

	err = scanAll(ctx, query, commentsQuery, func(r rows) error {
		var c models.Comment
		if err := r.Scan(&c.EpisodeID, &c.Timestamp, &c.Author, &c.Title, &c.Text); err != nil {
			return err
		}
		corpus.Comments = append(corpus.Comments, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	if withTranscripts {
		err = scanAll(ctx, query, transcriptsQuery, func(r rows) error {
			var id int
			var body string
			if err := r.Scan(&id, &body); err != nil {
				return err
			}
			corpus.Transcripts[id] = body
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load transcripts: %w", err)
		}
	}

	return corpus, nil
}

func scanAll(ctx context.Context, query querier, q string, fn func(rows) error) error {
	r, closeRows, err := query(ctx, q)
	if err != nil {
		return err
	}
	defer closeRows()

	for r.Next() {
		if err := fn(r); err != nil {
			return err
		}
	}
	return r.Err()
}
