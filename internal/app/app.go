package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsposter/internal/api"
	"newsposter/internal/config"
	"newsposter/internal/infrastructure/imagegen"
	"newsposter/internal/infrastructure/llm"
	"newsposter/internal/infrastructure/scheduler"
	"newsposter/internal/infrastructure/source"
	"newsposter/internal/infrastructure/storage"
	"newsposter/internal/infrastructure/twitter"
	"newsposter/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Run wires every component together and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	configs := storage.NewConfigRepository(db)
	posts := storage.NewPostLogRepository(db)

	origins, err := source.BuildOrigins(cfg.Source.Origins)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	articleSource := source.NewRandomSource(
		origins,
		cfg.Source.MaxAttempts,
		cfg.Source.RetryDelay(),
		cfg.Source.OfflineFallback,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		logger,
	)

	generator := llm.NewGenerator(cfg.LLM, logger)
	renderer := imagegen.NewRenderer(cfg.Image, logger)
	platform := twitter.NewClient(cfg.Twitter)

	publisher := usecase.NewPublisher(platform, posts, nil, logger)
	pipeline := usecase.NewPipeline(articleSource, generator, renderer, publisher, logger)
	orchestrator := usecase.NewOrchestrator(configs, pipeline, cfg.Scheduler.InterConfigDelay(), logger)

	cron := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		cfg.Scheduler.StartupDelay(),
		logger,
	)
	if err := cron.Start(ctx, func(time.Time) {
		orchestrator.RunCycle(ctx)
	}); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.NewHandler(orchestrator, configs, posts, platform, logger).Register(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := cron.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}
