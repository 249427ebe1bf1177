package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"newsbrief/internal/models"
)

// SourceStore is the source registry consumed by the pipeline.
type SourceStore struct {
	db *DB
}

// NewSourceStore returns a source store backed by db.
func NewSourceStore(db *DB) *SourceStore {
	return &SourceStore{db: db}
}

// ListActive returns all active sources in insertion order.
func (s *SourceStore) ListActive(ctx context.Context) ([]models.SourceDescriptor, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, name, type, config FROM sources WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	defer rows.Close()

	var sources []models.SourceDescriptor
	for rows.Next() {
		var src models.SourceDescriptor
		var cfg string
		if err := rows.Scan(&src.ID, &src.Name, &src.Type, &cfg); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		src.Config = json.RawMessage(cfg)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Add registers a source and returns its id.
func (s *SourceStore) Add(ctx context.Context, name, sourceType string, config json.RawMessage) (int64, error) {
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	s.db.writeMu.Lock()
	defer s.db.writeMu.Unlock()

	res, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sources (name, type, config, active, created_at) VALUES (?, ?, ?, 1, ?)`,
		name, sourceType, string(config), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert source %s: %w", name, err)
	}
	return res.LastInsertId()
}

// SetActive flips a source's active flag.
func (s *SourceStore) SetActive(ctx context.Context, id int64, active bool) error {
	s.db.writeMu.Lock()
	defer s.db.writeMu.Unlock()

	flag := 0
	if active {
		flag = 1
	}
	_, err := s.db.sql.ExecContext(ctx, `UPDATE sources SET active = ? WHERE id = ?`, flag, id)
	if err != nil {
		return fmt.Errorf("set source %d active=%v: %w", id, active, err)
	}
	return nil
}
