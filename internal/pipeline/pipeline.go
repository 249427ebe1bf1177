// Package pipeline orchestrates one digest run: fetch, dedup, synthesis,
// distribution and persistence, with per-stage failure isolation.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"newsbrief/internal/ai"
	"newsbrief/internal/cache"
	"newsbrief/internal/config"
	"newsbrief/internal/dedup"
	"newsbrief/internal/logger"
	"newsbrief/internal/models"
	"newsbrief/internal/webhook"
)

// ErrNoItems marks a run in which no source produced a single item. Together
// with a synthesis failure it is the only condition that should fail a run.
var ErrNoItems = errors.New("no items fetched from any source")

// SourceRegistry lists the sources to fetch. Implemented by store.SourceStore.
type SourceRegistry interface {
	ListActive(ctx context.Context) ([]models.SourceDescriptor, error)
}

// Fetcher fans out across sources. Implemented by source.Registry.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []models.SourceDescriptor, concurrency int) ([]models.FetchedItem, []error)
}

// History is the push-history contract. Implemented by store.HistoryStore.
type History interface {
	Load(ctx context.Context, window time.Duration) dedup.Snapshot
	Record(ctx context.Context, items []models.SynthItem, digestType models.DigestType) error
	Prune(ctx context.Context, retentionDays int) (int64, error)
}

// Synthesizer produces the digest from a filtered batch.
type Synthesizer interface {
	Synthesize(ctx context.Context, items []models.FetchedItem) (*ai.Result, error)
}

// Enricher is the optional deep-mode description enrichment.
type Enricher interface {
	Enrich(ctx context.Context, items []models.FetchedItem) []models.FetchedItem
}

// Pusher distributes the digest. Implemented by webhook.Sender.
type Pusher interface {
	PushItems(ctx context.Context, digestType models.DigestType, items []models.SynthItem) webhook.PushReport
	PushDegraded(ctx context.Context, digestType models.DigestType, rawText string) webhook.PushReport
}

// DigestCreator persists the run's digest document.
type DigestCreator interface {
	Create(ctx context.Context, digest models.Digest) (int64, error)
}

// Archiver optionally stores the rendered digest in an object store.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Runner wires the stages of one pipeline run. Optional collaborators
// (cache, enricher, archiver) may be nil.
type Runner struct {
	cfg      *config.Config
	sources  SourceRegistry
	fetcher  Fetcher
	history  History
	synth    Synthesizer
	enricher Enricher
	pusher   Pusher
	digests  DigestCreator
	cache    cache.Cache
	archiver Archiver
}

// Deps carries the Runner's collaborators.
type Deps struct {
	Config   *config.Config
	Sources  SourceRegistry
	Fetcher  Fetcher
	History  History
	Synth    Synthesizer
	Enricher Enricher
	Pusher   Pusher
	Digests  DigestCreator
	Cache    cache.Cache
	Archiver Archiver
}

// NewRunner constructs the orchestrator.
func NewRunner(deps Deps) *Runner {
	return &Runner{
		cfg:      deps.Config,
		sources:  deps.Sources,
		fetcher:  deps.Fetcher,
		history:  deps.History,
		synth:    deps.Synth,
		enricher: deps.Enricher,
		pusher:   deps.Pusher,
		digests:  deps.Digests,
		cache:    deps.Cache,
		archiver: deps.Archiver,
	}
}

// Run executes one digest run and returns its summary. The returned error is
// non-nil only for the two run-level failures: nothing fetched at all, or the
// primary synthesis call failing.
func (r *Runner) Run(ctx context.Context, opts models.RunOptions) (models.RunSummary, error) {
	log := logger.Get()
	start := time.Now()
	var summary models.RunSummary

	sources, err := r.sources.ListActive(ctx)
	if err != nil {
		return summary, fmt.Errorf("load active sources: %w", err)
	}
	log.Info().Str("digest_type", string(opts.DigestType)).
		Bool("deep_mode", opts.DeepMode).
		Int("sources", len(sources)).
		Msg("starting digest run")

	fetched, fetchErrs := r.fetcher.FetchAll(ctx, sources, r.cfg.FetchConcurrency)
	for _, ferr := range fetchErrs {
		summary.Errors = append(summary.Errors, ferr.Error())
	}
	summary.ItemsFetched = len(fetched)
	if len(fetched) == 0 {
		return summary, ErrNoItems
	}

	snap := r.history.Load(ctx, r.cfg.SuppressWindow())
	kept, stats := dedup.Prefilter(fetched, snap, dedup.Options{
		MaxAge:        r.cfg.MaxItemAge(),
		Thresholds:    dedup.DefaultThresholds(),
		AlreadyPushed: r.cachedCheck(ctx),
	})
	summary.ItemsAfterDedup = len(kept)
	log.Info().Int("fetched", len(fetched)).
		Int("kept", len(kept)).
		Int("stale", stats.Stale).
		Int("batch_dup", stats.BatchDup).
		Int("history_dup", stats.HistoryDup).
		Msg("pre-synthesis dedup done")

	if len(kept) == 0 {
		log.Info().Msg("nothing left after dedup, skipping synthesis")
		r.prune(ctx)
		return summary, nil
	}

	if opts.DeepMode && r.enricher != nil {
		kept = r.enricher.Enrich(ctx, kept)
	}

	result, err := r.synth.Synthesize(ctx, kept)
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		return summary, fmt.Errorf("digest synthesis: %w", err)
	}
	summary.ItemsSynthesized = len(result.Items)
	summary.Degraded = result.Degraded

	var report webhook.PushReport
	if result.Degraded {
		report = r.pusher.PushDegraded(ctx, opts.DigestType, result.RawText)
	} else {
		report = r.pusher.PushItems(ctx, opts.DigestType, result.Items)
	}
	summary.ItemsPushed = report.Succeeded
	if report.Failed > 0 {
		summary.Errors = append(summary.Errors,
			fmt.Sprintf("distribution: %d of %d sends failed", report.Failed, report.Attempted))
	}

	// Every attempted item is recorded, success or not: at-least-once push
	// with idempotent suppression beats re-pushing on the next run.
	if err := r.history.Record(ctx, report.Pushed, opts.DigestType); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("history record: %v", err))
		log.Error().Err(err).Msg("recording push history failed")
	}
	r.markCache(ctx, report.Pushed)

	r.persistDigest(ctx, opts, result, &summary)
	r.prune(ctx)

	log.Info().Int("pushed", summary.ItemsPushed).
		Int("errors", len(summary.Errors)).
		Dur("duration", time.Since(start)).
		Msg("digest run finished")
	return summary, nil
}

// cachedCheck adapts the optional cache into a prefilter callback. Cache
// errors mean "not suppressed" so a broken cache only over-pushes.
func (r *Runner) cachedCheck(ctx context.Context) func(string) bool {
	if r.cache == nil {
		return nil
	}
	return func(urlHash string) bool {
		pushed, err := r.cache.IsPushed(ctx, urlHash)
		if err != nil {
			logger.Debug().Err(err).Msg("cache lookup failed")
			return false
		}
		return pushed
	}
}

func (r *Runner) markCache(ctx context.Context, items []models.SynthItem) {
	if r.cache == nil {
		return
	}
	for _, item := range items {
		// Per-item: the sqlite record is authoritative, a failed mark only
		// costs a cache miss on the next run.
		if err := r.cache.MarkPushed(ctx, dedup.URLHash(item.URL), r.cfg.SuppressWindow()); err != nil {
			logger.Debug().Err(err).Str("url", item.URL).Msg("cache mark failed")
		}
	}
}

func (r *Runner) persistDigest(ctx context.Context, opts models.RunOptions, result *ai.Result, summary *models.RunSummary) {
	content := RenderMarkdown(opts.DigestType, result)
	metadata := "{}"
	if !result.Degraded {
		if blob, err := json.Marshal(result.Items); err == nil {
			metadata = string(blob)
		}
	}

	if _, err := r.digests.Create(ctx, models.Digest{
		Type:     opts.DigestType,
		Content:  content,
		Metadata: metadata,
	}); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("digest persist: %v", err))
		logger.Error().Err(err).Msg("persisting digest failed")
	}

	if r.archiver != nil {
		key := fmt.Sprintf("digests/%s/%s.md", time.Now().Format("2006/01/02"), opts.DigestType)
		if err := r.archiver.Put(ctx, key, []byte(content)); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("digest archive: %v", err))
			logger.Warn().Err(err).Msg("archiving digest failed")
		}
	}
}

func (r *Runner) prune(ctx context.Context) {
	deleted, err := r.history.Prune(ctx, r.cfg.RetentionDays)
	if err != nil {
		logger.Warn().Err(err).Msg("history prune failed")
		return
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("pruned push history")
	}
}
