//go:build sqlite_fts5

package search

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			location UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, location, title, body, tags string) error {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE location = ?`, location)
	_, err := tx.Exec(`INSERT INTO documents_fts (location, title, body, tags) VALUES (?, ?, ?, ?)`,
		location, title, body, tags)
	if err != nil {
		return fmt.Errorf("search: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, location string) {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE location = ?`, location)
}

func ftsReset(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM documents_fts`)
}

// Search performs an FTS5 full-text search and returns hits with snippets.
func (m *Mirror) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := m.conn.Query(`
		SELECT location,
		       title,
		       snippet(documents_fts, 2, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Location, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
