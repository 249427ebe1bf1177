package main

import (
	"context"
	"fmt"
	"time"

	"newsbrief/internal/ai"
	"newsbrief/internal/archive"
	"newsbrief/internal/cache"
	"newsbrief/internal/config"
	"newsbrief/internal/dedup"
	"newsbrief/internal/logger"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/source"
	"newsbrief/internal/store"
	"newsbrief/internal/webhook"
)

type serverDeps struct {
	pipelineDeps pipeline.Deps
	digests      *store.DigestStore
	sources      *store.SourceStore
}

// buildDeps constructs all collaborators from configuration. Optional pieces
// (redis cache, deep-mode enricher, archive) stay nil when unconfigured.
func buildDeps(cfg *config.Config) (*serverDeps, func(), error) {
	log := logger.Get()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	var pushCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, "brief:")
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without push cache")
		} else {
			pushCache = redisCache
		}
	}

	httpClient := source.NewClient(cfg.FetchTimeout, cfg.MaxBodyBytes, cfg.ProxyURL)
	registry := source.NewRegistry(httpClient, cfg.ExcerptLen)

	llm := ai.NewClient(cfg.AIApiKey, cfg.AIModel, cfg.AITimeout)
	synth := ai.NewSynthesizer(llm, ai.Options{
		MaxItems:        cfg.MaxDigestItems,
		MaxTop:          cfg.MaxTopItems,
		SummaryMaxChars: cfg.SummaryMaxChars,
		MaxTokens:       cfg.AIMaxTokens,
		StrictURLs:      cfg.StrictURLCheck,
		Thresholds:      dedup.DefaultThresholds(),
	})
	enricher := ai.NewDeepSummarizer(llm, httpClient, cfg.SummaryMaxChars)

	pusher := webhook.NewSender(cfg.WebhookURL, cfg.WebhookSecret,
		cfg.PushDelay, cfg.HTTPTimeout, cfg.PlainTextLimit)

	var archiver pipeline.Archiver
	if cfg.ArchiveEndpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a, err := archive.New(ctx, cfg.ArchiveEndpoint, cfg.ArchiveAccessKey,
			cfg.ArchiveSecretKey, cfg.ArchiveBucket)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("archive unavailable, digests kept locally only")
		} else {
			archiver = a
		}
	}

	deps := &serverDeps{
		pipelineDeps: pipeline.Deps{
			Config:   cfg,
			Sources:  store.NewSourceStore(db),
			Fetcher:  registry,
			History:  store.NewHistoryStore(db),
			Synth:    synth,
			Enricher: enricher,
			Pusher:   pusher,
			Digests:  store.NewDigestStore(db),
			Cache:    pushCache,
			Archiver: archiver,
		},
		digests: store.NewDigestStore(db),
		sources: store.NewSourceStore(db),
	}

	cleanup := func() {
		if pushCache != nil {
			if err := pushCache.Close(); err != nil {
				log.Debug().Err(err).Msg("closing cache")
			}
		}
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("closing database")
		}
	}
	return deps, cleanup, nil
}
