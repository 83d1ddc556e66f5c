package index

import (
	"context"
	"log/slog"

	"github.com/starford/dox/internal/logfields"
	"github.com/starford/dox/internal/models"
)

// Sync brings the index up to date with the manifest entries:
//   - new/changed entries (by fingerprint) are rendered and upserted
//   - manifest rows no longer present are deleted
//
// Dynamically discovered rows are left alone.
func Sync(ctx context.Context, db DocIndex, entries []*models.DocumentEntry, logger *slog.Logger) error {
	fingerprints, err := db.Fingerprints()
	if err != nil {
		return err
	}

	current := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := e.Key()
		current[key] = struct{}{}
		if fp, ok := fingerprints[key]; ok && fp == e.Fingerprint {
			continue
		}
		if err := Ingest(db, e, false); err != nil {
			logger.Warn("sync: index failed", logfields.DocKey(key), logfields.Error(err))
		} else {
			logger.Debug("sync: indexed", logfields.DocKey(key))
		}
	}

	// Remove stale entries.
	for key := range fingerprints {
		if _, ok := current[key]; ok {
			continue
		}
		if err := db.DeleteDoc(key); err != nil {
			logger.Warn("sync: delete failed", logfields.DocKey(key), logfields.Error(err))
		} else {
			logger.Debug("sync: removed stale", logfields.DocKey(key))
		}
	}
	return nil
}

// PruneDynamic deletes dynamically indexed rows whose source is gone, as
// reported by exists. It returns the number of rows removed.
func PruneDynamic(ctx context.Context, db DocIndex, exists func(key string) bool, logger *slog.Logger) (int, error) {
	keys, err := db.DynamicKeys()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if exists(key) {
			continue
		}
		if err := db.DeleteDoc(key); err != nil {
			logger.Warn("sync: delete failed", logfields.DocKey(key), logfields.Error(err))
			continue
		}
		removed++
		logger.Debug("sync: removed orphaned dynamic doc", logfields.DocKey(key))
	}
	return removed, nil
}

// Ingest renders e and upserts it. A body that fails to render is indexed
// by its metadata alone.
func Ingest(db DocIndex, e *models.DocumentEntry, dynamic bool) error {
	var body string
	if e.Body != nil {
		if out, err := e.Body.HTML(); err == nil {
			body = PlainText(out)
		}
	}
	return db.UpsertDoc(DocRow{
		Key:         e.Key(),
		ID:          e.ID,
		Href:        e.Href,
		Title:       e.Title,
		Description: e.Description,
		Keywords:    e.Keywords,
		Fingerprint: e.Fingerprint,
		Dynamic:     dynamic,
	}, body)
}
