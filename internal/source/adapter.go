// Package source implements the per-source-type fetch adapters and the
// bounded-concurrency fan-out across active sources.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"newsbrief/internal/logger"
	"newsbrief/internal/models"
)

// validate checks adapter config structs; shared, as the validator caches
// struct metadata.
var validate = validator.New()

// Adapter fetches and normalizes items for one source type.
type Adapter interface {
	Type() string
	Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error)
}

// decodeConfig unmarshals a source's raw config blob into out and validates
// it. Failures become ConfigErrors so the registry can skip the source.
func decodeConfig(src models.SourceDescriptor, out any) error {
	raw := src.Config
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ConfigError{Source: src.Name, Err: err}
	}
	if err := validate.Struct(out); err != nil {
		return &ConfigError{Source: src.Name, Err: err}
	}
	return nil
}

// Registry dispatches sources to their adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry with the default adapter set.
func NewRegistry(client *Client, excerptLen int) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewRSSAdapter(client, excerptLen))
	r.Register(NewHackerNewsAdapter(client))
	r.Register(NewRedditAdapter(client))
	r.Register(NewGithubTrendingAdapter(client, excerptLen))
	r.Register(NewMastodonAdapter(client, excerptLen))
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Type()] = a
}

// Fetch dispatches one source. Unknown source types are rejected explicitly
// rather than silently ignored.
func (r *Registry) Fetch(ctx context.Context, src models.SourceDescriptor) ([]models.FetchedItem, error) {
	adapter, ok := r.adapters[src.Type]
	if !ok {
		return nil, &ConfigError{Source: src.Name, Err: fmt.Errorf("unknown source type %q", src.Type)}
	}
	items, err := adapter.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].SourceName = src.Name
		items[i].SourceType = src.Type
	}
	return items, nil
}

// FetchAll fans out across sources with bounded concurrency. Each source
// settles independently; one failure never cancels its siblings. The merged
// result preserves source order, and item order within a source.
func (r *Registry) FetchAll(ctx context.Context, sources []models.SourceDescriptor, concurrency int) ([]models.FetchedItem, []error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	perSource := make([][]models.FetchedItem, len(sources))
	perErr := make([]error, len(sources))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src models.SourceDescriptor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, err := r.Fetch(ctx, src)
			if err != nil {
				perErr[i] = err
				logger.Warn().Err(err).Str("source", src.Name).Msg("source fetch failed, continuing without it")
				return
			}
			perSource[i] = items
			logger.Info().Str("source", src.Name).Int("items", len(items)).Msg("source fetched")
		}(i, src)
	}
	wg.Wait()

	var merged []models.FetchedItem
	var errs []error
	for i := range sources {
		if perErr[i] != nil {
			errs = append(errs, perErr[i])
			continue
		}
		merged = append(merged, perSource[i]...)
	}
	return merged, errs
}
