//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			key UNINDEXED,
			title,
			description,
			body,
			keywords,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, key, title, description, body string, keywords []string) error {
	_, _ = tx.Exec(`DELETE FROM docs_fts WHERE key = ?`, key)
	_, err := tx.Exec(`INSERT INTO docs_fts (key, title, description, body, keywords) VALUES (?, ?, ?, ?, ?)`,
		key, title, description, body, strings.Join(keywords, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, key string) {
	_, _ = tx.Exec(`DELETE FROM docs_fts WHERE key = ?`, key)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.key,
		       d.href,
		       f.title,
		       snippet(docs_fts, 3, '<b>', '</b>', '...', 32)
		FROM docs_fts f
		JOIN docs d ON d.key = f.key
		WHERE docs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
