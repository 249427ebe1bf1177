package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/models"
)

type stubAdapter struct {
	typ   string
	items []models.FetchedItem
	err   error
	delay time.Duration
}

func (s *stubAdapter) Type() string { return s.typ }

func (s *stubAdapter) Fetch(ctx context.Context, _ models.SourceDescriptor) ([]models.FetchedItem, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func TestRegistryDefaultAdapters(t *testing.T) {
	r := NewRegistry(NewClient(time.Second, 1<<20, ""), 400)
	for _, typ := range []string{TypeRSS, TypeHackerNews, TypeReddit, TypeGithubTrending, TypeMastodon} {
		_, ok := r.adapters[typ]
		assert.True(t, ok, "adapter %q not registered", typ)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := &Registry{adapters: map[string]Adapter{}}
	_, err := r.Fetch(context.Background(), models.SourceDescriptor{Name: "x", Type: "telegram"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "telegram")
}

func TestRegistryFetchStampsSourceFields(t *testing.T) {
	r := &Registry{adapters: map[string]Adapter{}}
	r.Register(&stubAdapter{typ: "stub", items: []models.FetchedItem{{Title: "a", URL: "u"}}})

	items, err := r.Fetch(context.Background(), models.SourceDescriptor{Name: "my source", Type: "stub"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "my source", items[0].SourceName)
	assert.Equal(t, "stub", items[0].SourceType)
}

func TestFetchAllMergesInSourceOrder(t *testing.T) {
	r := &Registry{adapters: map[string]Adapter{}}
	// The slow adapter finishes last but its items still come first.
	r.Register(&stubAdapter{typ: "slow", delay: 50 * time.Millisecond, items: []models.FetchedItem{
		{Title: "slow-1", URL: "https://example.com/s1"},
		{Title: "slow-2", URL: "https://example.com/s2"},
	}})
	r.Register(&stubAdapter{typ: "fast", items: []models.FetchedItem{
		{Title: "fast-1", URL: "https://example.com/f1"},
	}})

	sources := []models.SourceDescriptor{
		{Name: "slow source", Type: "slow"},
		{Name: "fast source", Type: "fast"},
	}
	items, errs := r.FetchAll(context.Background(), sources, 4)

	assert.Empty(t, errs)
	require.Len(t, items, 3)
	assert.Equal(t, "slow-1", items[0].Title)
	assert.Equal(t, "slow-2", items[1].Title)
	assert.Equal(t, "fast-1", items[2].Title)
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	r := &Registry{adapters: map[string]Adapter{}}
	r.Register(&stubAdapter{typ: "good", items: []models.FetchedItem{{Title: "ok", URL: "u"}}})
	r.Register(&stubAdapter{typ: "bad", err: errors.New("upstream down")})

	sources := []models.SourceDescriptor{
		{Name: "bad source", Type: "bad"},
		{Name: "good source", Type: "good"},
	}
	items, errs := r.FetchAll(context.Background(), sources, 2)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "upstream down")
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].Title)
}

func TestFetchAllNoSources(t *testing.T) {
	r := &Registry{adapters: map[string]Adapter{}}
	items, errs := r.FetchAll(context.Background(), nil, 0)
	assert.Empty(t, items)
	assert.Empty(t, errs)
}
