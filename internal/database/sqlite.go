package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Schema is the table layout both SQL sources read. Postgres accepts it
// unchanged.
const Schema = `
CREATE TABLE IF NOT EXISTS eps (
	id INTEGER PRIMARY KEY,
	date TEXT NOT NULL,
	title TEXT NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	hostid INTEGER NOT NULL DEFAULT 0,
	series INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '',
	license TEXT NOT NULL DEFAULT '',
	downloads INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS hosts (
	hostid INTEGER PRIMARY KEY,
	host TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	license TEXT NOT NULL DEFAULT '',
	profile TEXT NOT NULL DEFAULT '',
	valid INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS miniseries (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	private INTEGER NOT NULL DEFAULT 0,
	valid INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY,
	eps_id INTEGER NOT NULL,
	comment_timestamp TEXT NOT NULL DEFAULT '',
	comment_author_name TEXT NOT NULL DEFAULT '',
	comment_title TEXT NOT NULL DEFAULT '',
	comment_text TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS transcripts (
	eps_id INTEGER PRIMARY KEY,
	body TEXT NOT NULL
);
`

// OpenSQLite opens an existing corpus database. A missing file is an error
// rather than a silently created empty corpus.
func OpenSQLite(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// CreateSchema creates the corpus tables in a writable database.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
