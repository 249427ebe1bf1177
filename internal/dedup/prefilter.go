package dedup

import (
	"time"

	"newsbrief/internal/models"
)

// Snapshot is a point-in-time read of the push history used for suppression
// checks. A missing or unreadable history degrades to an empty snapshot.
type Snapshot struct {
	URLHashes   map[string]struct{}
	TitleHashes map[string]struct{}
	Titles      []string
}

// EmptySnapshot returns a snapshot that suppresses nothing.
func EmptySnapshot() Snapshot {
	return Snapshot{
		URLHashes:   make(map[string]struct{}),
		TitleHashes: make(map[string]struct{}),
	}
}

// Options tunes the pre-synthesis filter.
type Options struct {
	// MaxAge drops items whose parsed publish time is older than this.
	// Items without a parseable publish time are kept.
	MaxAge time.Duration
	// Now anchors the staleness check; zero means time.Now().
	Now time.Time
	// Thresholds tunes the fuzzy title comparison against history titles.
	Thresholds Thresholds
	// AlreadyPushed, when set, is an extra suppression check on the
	// normalized-URL hash (e.g. a shared cache in front of the store).
	AlreadyPushed func(urlHash string) bool
}

// Stats counts how many items each filter stage removed. Observability only.
type Stats struct {
	Stale      int `json:"stale"`
	BatchDup   int `json:"batch_dup"`
	HistoryDup int `json:"history_dup"`
}

// Prefilter applies, in order: staleness filtering, batch-local URL dedup,
// and history suppression. Input order is preserved for surviving items.
func Prefilter(items []models.FetchedItem, snap Snapshot, opts Options) ([]models.FetchedItem, Stats) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var stats Stats
	kept := make([]models.FetchedItem, 0, len(items))
	seenURLs := make(map[string]struct{}, len(items))

	for _, item := range items {
		if opts.MaxAge > 0 && item.PublishedAt != nil && now.Sub(*item.PublishedAt) > opts.MaxAge {
			stats.Stale++
			continue
		}

		normURL := NormalizeURL(item.URL)
		if _, dup := seenURLs[normURL]; dup {
			stats.BatchDup++
			continue
		}
		seenURLs[normURL] = struct{}{}

		if suppressedByHistory(item, snap, opts) {
			stats.HistoryDup++
			continue
		}

		kept = append(kept, item)
	}

	return kept, stats
}

func suppressedByHistory(item models.FetchedItem, snap Snapshot, opts Options) bool {
	urlHash := URLHash(item.URL)
	if opts.AlreadyPushed != nil && opts.AlreadyPushed(urlHash) {
		return true
	}
	if _, ok := snap.URLHashes[urlHash]; ok {
		return true
	}
	if item.Title != "" {
		if _, ok := snap.TitleHashes[TitleHash(item.Title)]; ok {
			return true
		}
		for _, prev := range snap.Titles {
			if SimilarWith(item.Title, prev, opts.Thresholds) {
				return true
			}
		}
	}
	return false
}
