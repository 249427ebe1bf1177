package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"newsbrief/internal/ai"
	"newsbrief/internal/archive"
	"newsbrief/internal/cache"
	"newsbrief/internal/config"
	"newsbrief/internal/dedup"
	"newsbrief/internal/logger"
	"newsbrief/internal/models"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/source"
	"newsbrief/internal/store"
	"newsbrief/internal/webhook"
)

func main() {
	digestTypeFlag := flag.String("type", "morning", "digest type: morning, evening or weekly")
	deepFlag := flag.Bool("deep", false, "fetch and summarize full articles before synthesis")
	timeoutFlag := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: cfg.Env == "development",
	})
	log := logger.Get()

	digestType, err := models.ParseDigestType(*digestTypeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -type")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	var pushCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, "brief:")
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without push cache")
		} else {
			pushCache = redisCache
			defer redisCache.Close()
		}
	}

	httpClient := source.NewClient(cfg.FetchTimeout, cfg.MaxBodyBytes, cfg.ProxyURL)
	llm := ai.NewClient(cfg.AIApiKey, cfg.AIModel, cfg.AITimeout)

	var archiver pipeline.Archiver
	if cfg.ArchiveEndpoint != "" {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		a, err := archive.New(initCtx, cfg.ArchiveEndpoint, cfg.ArchiveAccessKey,
			cfg.ArchiveSecretKey, cfg.ArchiveBucket)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("archive unavailable, digests kept locally only")
		} else {
			archiver = a
		}
	}

	runner := pipeline.NewRunner(pipeline.Deps{
		Config:  cfg,
		Sources: store.NewSourceStore(db),
		Fetcher: source.NewRegistry(httpClient, cfg.ExcerptLen),
		History: store.NewHistoryStore(db),
		Synth: ai.NewSynthesizer(llm, ai.Options{
			MaxItems:        cfg.MaxDigestItems,
			MaxTop:          cfg.MaxTopItems,
			SummaryMaxChars: cfg.SummaryMaxChars,
			MaxTokens:       cfg.AIMaxTokens,
			StrictURLs:      cfg.StrictURLCheck,
			Thresholds:      dedup.DefaultThresholds(),
		}),
		Enricher: ai.NewDeepSummarizer(llm, httpClient, cfg.SummaryMaxChars),
		Pusher: webhook.NewSender(cfg.WebhookURL, cfg.WebhookSecret,
			cfg.PushDelay, cfg.HTTPTimeout, cfg.PlainTextLimit),
		Digests:  store.NewDigestStore(db),
		Cache:    pushCache,
		Archiver: archiver,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	summary, err := runner.Run(ctx, models.RunOptions{
		DigestType: digestType,
		DeepMode:   *deepFlag,
	})
	printSummary(summary)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoItems) {
			log.Error().Msg("no items fetched from any source")
		} else {
			log.Error().Err(err).Msg("digest run failed")
		}
		os.Exit(1)
	}
}

func printSummary(summary models.RunSummary) {
	blob, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(blob))
}
