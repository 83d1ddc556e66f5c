package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/dox/internal/apperr"
)

// DocRow represents a row in the docs table.
type DocRow struct {
	Key         string
	ID          string
	Href        string
	Title       string
	Description string
	Keywords    []string
	Fingerprint string
	// Dynamic marks documents discovered on disk rather than listed in the
	// manifest. Sync never prunes them.
	Dynamic   bool
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Key     string `json:"key"`
	Href    string `json:"href"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDoc inserts or replaces a document and its FTS entry within a transaction.
func (db *DB) UpsertDoc(d DocRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if d.Keywords == nil {
		d.Keywords = []string{}
	}
	kwJSON, _ := json.Marshal(d.Keywords)
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO docs (key, id, href, title, description, keywords, body, fingerprint, dynamic, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			id          = excluded.id,
			href        = excluded.href,
			title       = excluded.title,
			description = excluded.description,
			keywords    = excluded.keywords,
			body        = excluded.body,
			fingerprint = excluded.fingerprint,
			dynamic     = excluded.dynamic,
			updated_at  = excluded.updated_at
	`, d.Key, d.ID, d.Href, d.Title, d.Description, string(kwJSON), body, d.Fingerprint, d.Dynamic, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert doc: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Key, d.Title, d.Description, body, d.Keywords); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDoc removes a document and its FTS entry.
func (db *DB) DeleteDoc(key string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, key)
	if _, err := tx.Exec(`DELETE FROM docs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("index: delete doc: %w", err)
	}
	return tx.Commit()
}

// GetDoc returns the indexed row for key.
func (db *DB) GetDoc(key string) (*DocRow, error) {
	var (
		d       DocRow
		kwJSON  string
		dynamic int
	)
	err := db.conn.QueryRow(`
		SELECT key, id, href, title, description, keywords, fingerprint, dynamic, updated_at
		FROM docs WHERE key = ?
	`, key).Scan(&d.Key, &d.ID, &d.Href, &d.Title, &d.Description, &kwJSON, &d.Fingerprint, &dynamic, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: doc %q: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get doc: %w", err)
	}
	_ = json.Unmarshal([]byte(kwJSON), &d.Keywords)
	d.Dynamic = dynamic != 0
	return &d, nil
}

// Fingerprints returns the stored fingerprint of every manifest document,
// keyed by document key.
func (db *DB) Fingerprints() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT key, fingerprint FROM docs WHERE dynamic = 0`)
	if err != nil {
		return nil, fmt.Errorf("index: fingerprints: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, fp string
		if err := rows.Scan(&k, &fp); err != nil {
			return nil, err
		}
		out[k] = fp
	}
	return out, rows.Err()
}

// DynamicKeys returns the keys of documents indexed after a dynamic
// compilation, in key order.
func (db *DB) DynamicKeys() ([]string, error) {
	rows, err := db.conn.Query(`SELECT key FROM docs WHERE dynamic = 1 ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("index: dynamic keys: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Count returns the number of indexed documents.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM docs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Key, &r.Href, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
