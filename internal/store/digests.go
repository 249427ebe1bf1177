package store

import (
	"context"
	"fmt"
	"time"

	"newsbrief/internal/models"
)

// DigestStore persists synthesized digests, one row per pipeline run.
type DigestStore struct {
	db *DB
}

// NewDigestStore returns a digest store backed by db.
func NewDigestStore(db *DB) *DigestStore {
	return &DigestStore{db: db}
}

// Create inserts a digest and returns its id.
func (d *DigestStore) Create(ctx context.Context, digest models.Digest) (int64, error) {
	d.db.writeMu.Lock()
	defer d.db.writeMu.Unlock()

	createdAt := digest.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	metadata := digest.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	res, err := d.db.sql.ExecContext(ctx,
		`INSERT INTO digests (type, content, metadata, created_at) VALUES (?, ?, ?, ?)`,
		string(digest.Type), digest.Content, metadata, createdAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert digest: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent digests, newest first.
func (d *DigestStore) List(ctx context.Context, limit int) ([]models.Digest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := d.db.sql.QueryContext(ctx,
		`SELECT id, type, content, metadata, created_at FROM digests ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	defer rows.Close()

	var digests []models.Digest
	for rows.Next() {
		var dg models.Digest
		var dt string
		var createdAt int64
		if err := rows.Scan(&dg.ID, &dt, &dg.Content, &dg.Metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan digest row: %w", err)
		}
		dg.Type = models.DigestType(dt)
		dg.CreatedAt = time.Unix(createdAt, 0)
		digests = append(digests, dg)
	}
	return digests, rows.Err()
}
