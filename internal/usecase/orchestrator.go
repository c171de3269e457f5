package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsposter/internal/domain"
	"newsposter/internal/ports"
)

// Orchestrator drives posting cycles over the set of posting profiles.
type Orchestrator struct {
	configs          ports.ConfigStore
	pipeline         *Pipeline
	interConfigDelay time.Duration
	logger           *slog.Logger
}

func NewOrchestrator(configs ports.ConfigStore, pipeline *Pipeline, interConfigDelay time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		configs:          configs,
		pipeline:         pipeline,
		interConfigDelay: interConfigDelay,
		logger:           logger,
	}
}

// RunCycle posts once for every profile active at the start of the cycle.
// Profiles are processed sequentially with a pause between them; one profile
// failing never stops the rest.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	started := time.Now()

	configs, err := o.configs.ListActive(ctx)
	if err != nil {
		o.logger.Error("cannot list active configs, skipping cycle", "error", err)
		return
	}
	if len(configs) == 0 {
		o.logger.Info("no active configs, nothing to post")
		return
	}

	o.logger.Info("posting cycle started", "configs", len(configs))

	for i, cfg := range configs {
		if i > 0 && !o.pause(ctx) {
			o.logger.Info("posting cycle cancelled", "processed", i)
			return
		}

		if _, err := o.pipeline.Run(ctx, cfg); err != nil {
			o.logger.Error("posting failed for config",
				"configId", cfg.ID, "error", err)
		}
	}

	o.logger.Info("posting cycle finished",
		"configs", len(configs), "elapsed", time.Since(started).Round(time.Millisecond))
}

// RunConfig posts once for a single profile, regardless of whether it is
// active. Used by the manual trigger endpoint.
func (o *Orchestrator) RunConfig(ctx context.Context, id int64) (*domain.PostResult, error) {
	cfg, err := o.configs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load config %d: %w", id, err)
	}

	result, err := o.pipeline.Run(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.interConfigDelay <= 0 {
		return true
	}
	timer := time.NewTimer(o.interConfigDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
