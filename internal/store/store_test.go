package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/dedup"
	"newsbrief/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchemaAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	// Schema application is idempotent.
	db2, err := Open(path)
	require.NoError(t, err)
	db2.Close()
}

func TestHistoryRecordAndLoad(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	ctx := context.Background()

	items := []models.SynthItem{
		{Title: "Alpha ships new compiler", URL: "https://example.com/a"},
		{Title: "Beta raises funding", URL: "https://example.com/b"},
	}
	require.NoError(t, h.Record(ctx, items, models.DigestMorning))

	snap := h.Load(ctx, 72*time.Hour)
	assert.Contains(t, snap.URLHashes, dedup.URLHash("https://example.com/a"))
	assert.Contains(t, snap.URLHashes, dedup.URLHash("http://www.example.com/b/"))
	assert.Contains(t, snap.TitleHashes, dedup.TitleHash("Alpha ships new compiler"))
	assert.ElementsMatch(t, []string{"Alpha ships new compiler", "Beta raises funding"}, snap.Titles)
}

func TestHistoryRecordIdempotent(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	ctx := context.Background()

	items := []models.SynthItem{{Title: "Alpha", URL: "https://example.com/a"}}
	require.NoError(t, h.Record(ctx, items, models.DigestMorning))
	require.NoError(t, h.Record(ctx, items, models.DigestEvening))

	var count int
	require.NoError(t, db.sql.QueryRow(`SELECT COUNT(*) FROM push_history`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHistoryRecordEmptyBatchIsNoop(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	require.NoError(t, h.Record(context.Background(), nil, models.DigestMorning))
}

func TestHistoryLoadWindowExcludesOldRecords(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	h.now = func() time.Time { return base.Add(-100 * time.Hour) }
	require.NoError(t, h.Record(ctx, []models.SynthItem{
		{Title: "Old story", URL: "https://example.com/old"},
	}, models.DigestMorning))

	h.now = func() time.Time { return base.Add(-time.Hour) }
	require.NoError(t, h.Record(ctx, []models.SynthItem{
		{Title: "Recent story", URL: "https://example.com/recent"},
	}, models.DigestMorning))

	h.now = func() time.Time { return base }
	snap := h.Load(ctx, 72*time.Hour)

	assert.Contains(t, snap.URLHashes, dedup.URLHash("https://example.com/recent"))
	assert.NotContains(t, snap.URLHashes, dedup.URLHash("https://example.com/old"))
	assert.Equal(t, []string{"Recent story"}, snap.Titles)
}

func TestHistoryLoadWindowBoundary(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := 72 * time.Hour

	record := func(age time.Duration, title, url string) {
		h.now = func() time.Time { return now.Add(-age) }
		require.NoError(t, h.Record(ctx, []models.SynthItem{{Title: title, URL: url}}, models.DigestMorning))
	}
	record(window-time.Second, "Just inside", "https://example.com/inside")
	record(window, "Exactly at the edge", "https://example.com/edge")
	record(window+time.Second, "Just outside", "https://example.com/outside")

	h.now = func() time.Time { return now }
	snap := h.Load(ctx, window)

	assert.Contains(t, snap.URLHashes, dedup.URLHash("https://example.com/inside"))
	assert.Contains(t, snap.URLHashes, dedup.URLHash("https://example.com/edge"))
	assert.NotContains(t, snap.URLHashes, dedup.URLHash("https://example.com/outside"))
	assert.ElementsMatch(t, []string{"Just inside", "Exactly at the edge"}, snap.Titles)
}

func TestHistoryLoadUnreadableDegradesToEmpty(t *testing.T) {
	db := openTestDB(t)
	_, err := db.sql.Exec(`DROP TABLE push_history`)
	require.NoError(t, err)

	h := NewHistoryStore(db)
	snap := h.Load(context.Background(), 72*time.Hour)
	assert.Empty(t, snap.URLHashes)
	assert.Empty(t, snap.TitleHashes)
	assert.Empty(t, snap.Titles)
}

func TestHistoryPrune(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	h.now = func() time.Time { return base.AddDate(0, 0, -10) }
	require.NoError(t, h.Record(ctx, []models.SynthItem{
		{Title: "Ancient", URL: "https://example.com/ancient"},
	}, models.DigestMorning))

	h.now = func() time.Time { return base }
	require.NoError(t, h.Record(ctx, []models.SynthItem{
		{Title: "Fresh", URL: "https://example.com/fresh"},
	}, models.DigestMorning))

	deleted, err := h.Prune(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	snap := h.Load(ctx, 24*time.Hour)
	assert.Contains(t, snap.URLHashes, dedup.URLHash("https://example.com/fresh"))
	assert.NotContains(t, snap.URLHashes, dedup.URLHash("https://example.com/ancient"))
}

func TestSourceStoreAddAndList(t *testing.T) {
	db := openTestDB(t)
	s := NewSourceStore(db)
	ctx := context.Background()

	id1, err := s.Add(ctx, "hn top", "hackernews", json.RawMessage(`{"min_score":150}`))
	require.NoError(t, err)
	id2, err := s.Add(ctx, "go blog", "rss", json.RawMessage(`{"url":"https://go.dev/blog/feed.atom"}`))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	sources, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "hn top", sources[0].Name)
	assert.Equal(t, "hackernews", sources[0].Type)
	assert.JSONEq(t, `{"min_score":150}`, string(sources[0].Config))
	assert.Equal(t, "go blog", sources[1].Name)
}

func TestSourceStoreDefaultConfig(t *testing.T) {
	db := openTestDB(t)
	s := NewSourceStore(db)
	ctx := context.Background()

	_, err := s.Add(ctx, "bare", "rss", nil)
	require.NoError(t, err)

	sources, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.JSONEq(t, `{}`, string(sources[0].Config))
}

func TestSourceStoreSetActive(t *testing.T) {
	db := openTestDB(t)
	s := NewSourceStore(db)
	ctx := context.Background()

	id, err := s.Add(ctx, "feed", "rss", json.RawMessage(`{"url":"https://example.com/feed"}`))
	require.NoError(t, err)

	require.NoError(t, s.SetActive(ctx, id, false))
	sources, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	require.NoError(t, s.SetActive(ctx, id, true))
	sources, err = s.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestDigestStoreCreateAndList(t *testing.T) {
	db := openTestDB(t)
	d := NewDigestStore(db)
	ctx := context.Background()

	id1, err := d.Create(ctx, models.Digest{Type: models.DigestMorning, Content: "# first"})
	require.NoError(t, err)
	assert.Positive(t, id1)

	_, err = d.Create(ctx, models.Digest{Type: models.DigestEvening, Content: "# second", Metadata: `[{"title":"t"}]`})
	require.NoError(t, err)

	digests, err := d.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, digests, 2)
	// Newest first.
	assert.Equal(t, models.DigestEvening, digests[0].Type)
	assert.Equal(t, "# second", digests[0].Content)
	assert.Equal(t, `[{"title":"t"}]`, digests[0].Metadata)
	assert.Equal(t, "{}", digests[1].Metadata)
}

func TestDigestStoreListLimitClamped(t *testing.T) {
	db := openTestDB(t)
	d := NewDigestStore(db)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := d.Create(ctx, models.Digest{Type: models.DigestMorning, Content: "x"})
		require.NoError(t, err)
	}

	digests, err := d.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, digests, 20)

	digests, err = d.List(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, digests, 5)
}
