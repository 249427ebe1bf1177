package store

import (
	"context"
	"fmt"
	"time"

	"newsbrief/internal/dedup"
	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// HistoryStore owns the push_history table. Records are inserted by the
// distribution stage and removed only by Prune.
type HistoryStore struct {
	db *DB

	// now is overridable in tests.
	now func() time.Time
}

// NewHistoryStore returns a history store backed by db.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

// Load returns a point-in-time snapshot of records pushed within the given
// window. A read failure degrades to an empty snapshot and is logged, never
// surfaced: history is an optimization, not correctness-critical state.
func (h *HistoryStore) Load(ctx context.Context, window time.Duration) dedup.Snapshot {
	snap := dedup.EmptySnapshot()

	cutoff := h.now().Add(-window).Unix()
	rows, err := h.db.sql.QueryContext(ctx,
		`SELECT url_hash, title_hash, title FROM push_history WHERE pushed_at >= ?`, cutoff)
	if err != nil {
		logger.Warn().Err(err).Msg("push history unreadable, suppressing nothing")
		return snap
	}
	defer rows.Close()

	for rows.Next() {
		var urlHash, titleHash, title string
		if err := rows.Scan(&urlHash, &titleHash, &title); err != nil {
			logger.Warn().Err(err).Msg("skipping unreadable push history row")
			continue
		}
		snap.URLHashes[urlHash] = struct{}{}
		snap.TitleHashes[titleHash] = struct{}{}
		if title != "" {
			snap.Titles = append(snap.Titles, title)
		}
	}
	if err := rows.Err(); err != nil {
		logger.Warn().Err(err).Msg("push history read aborted early")
	}

	return snap
}

// Record bulk-inserts pushed items. Duplicate url hashes are silently
// ignored, so replaying the same batch is idempotent.
func (h *HistoryStore) Record(ctx context.Context, items []models.SynthItem, digestType models.DigestType) error {
	if len(items) == 0 {
		return nil
	}

	h.db.writeMu.Lock()
	defer h.db.writeMu.Unlock()

	tx, err := h.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO push_history (url_hash, title_hash, title, url, digest_type, pushed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	pushedAt := h.now().Unix()
	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			dedup.URLHash(item.URL), dedup.TitleHash(item.Title),
			item.Title, item.URL, string(digestType), pushedAt)
		if err != nil {
			return fmt.Errorf("insert history record for %s: %w", item.URL, err)
		}
	}

	return tx.Commit()
}

// Prune deletes records older than the retention horizon and returns how
// many were removed.
func (h *HistoryStore) Prune(ctx context.Context, retentionDays int) (int64, error) {
	h.db.writeMu.Lock()
	defer h.db.writeMu.Unlock()

	cutoff := h.now().AddDate(0, 0, -retentionDays).Unix()
	res, err := h.db.sql.ExecContext(ctx, `DELETE FROM push_history WHERE pushed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune push history: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune push history rows affected: %w", err)
	}
	return deleted, nil
}
