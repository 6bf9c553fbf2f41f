// Package search maintains a SQLite mirror of the document index for
// full-text search, with optional FTS5 behind the sqlite_fts5 build tag.
// The mirror is derived state: it is rebuilt from the in-memory index and
// never consulted for resolution or graphing.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shihwesley/chronicler-sub000/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	location TEXT PRIMARY KEY,
	title    TEXT NOT NULL DEFAULT '',
	tags     TEXT NOT NULL DEFAULT '',
	body     TEXT NOT NULL DEFAULT ''
);
`

// Result represents one search hit.
type Result struct {
	Location string `json:"location"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Mirror wraps the SQLite connection holding the searchable copy.
type Mirror struct {
	conn *sql.DB
}

// Open opens (or creates) the mirror database and applies the schema.
func Open(dsn string) (*Mirror, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("search: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &Mirror{conn: conn}, nil
}

// Close closes the underlying database connection.
func (m *Mirror) Close() error {
	return m.conn.Close()
}

// Index inserts or replaces the searchable copy of one document.
func (m *Mirror) Index(doc *models.Document) error {
	tx, err := m.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := strings.Join(doc.Tags, " ")
	_, err = tx.Exec(`
		INSERT INTO documents (location, title, tags, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			title = excluded.title,
			tags  = excluded.tags,
			body  = excluded.body
	`, doc.Location, doc.Title, tags, doc.Body)
	if err != nil {
		return fmt.Errorf("search: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, doc.Location, doc.Title, doc.Body, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a document's searchable copy.
func (m *Mirror) Delete(location string) error {
	tx, err := m.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, location)
	_, _ = tx.Exec(`DELETE FROM documents WHERE location = ?`, location)
	return tx.Commit()
}

// Reset drops every mirrored document; used before a full workspace load.
func (m *Mirror) Reset() error {
	tx, err := m.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsReset(tx)
	_, _ = tx.Exec(`DELETE FROM documents`)
	return tx.Commit()
}
