package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsbrief/internal/api"
	"newsbrief/internal/config"
	"newsbrief/internal/logger"
	"newsbrief/internal/models"
	"newsbrief/internal/pipeline"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: cfg.Env == "development",
	})
	log := logger.Get()
	log.Info().Msg("starting newsbrief server")

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialization failed")
	}
	defer cleanup()

	runner := pipeline.NewRunner(deps.pipelineDeps)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
	})
	handlers := api.NewHandlers(runner, deps.digests, deps.sources)
	api.SetupRoutes(app, handlers, cfg.AdminAPIKey)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.ScheduleEvery > 0 {
		digestType, err := models.ParseDigestType(cfg.ScheduleType)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid SCHEDULE_TYPE")
		}
		go runScheduled(rootCtx, runner, digestType, cfg.ScheduleEvery)
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

// runScheduled triggers a digest run on a fixed interval until ctx ends.
func runScheduled(ctx context.Context, runner *pipeline.Runner, digestType models.DigestType, every time.Duration) {
	log := logger.Get()
	log.Info().Dur("every", every).Str("digest_type", string(digestType)).Msg("scheduler started")

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			summary, err := runner.Run(runCtx, models.RunOptions{DigestType: digestType})
			cancel()
			if err != nil {
				log.Error().Err(err).Msg("scheduled digest run failed")
				continue
			}
			log.Info().Int("pushed", summary.ItemsPushed).Msg("scheduled digest run completed")
		}
	}
}
