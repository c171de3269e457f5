package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newsposter/internal/ports"
)

var _ ports.Scheduler = (*CronScheduler)(nil)

// CronScheduler fires the pipeline job on a cron cadence. It also fires the
// job once shortly after Start so a freshly deployed service posts without
// waiting for the first cron tick.
type CronScheduler struct {
	expression   string
	location     *time.Location
	startupDelay time.Duration
	log          *slog.Logger

	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewCronScheduler(expression string, location *time.Location, startupDelay time.Duration, log *slog.Logger) *CronScheduler {
	return &CronScheduler{
		expression:   expression,
		location:     location,
		startupDelay: startupDelay,
		log:          log,
	}
}

func (s *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	s.cron = cron.New(cron.WithLocation(s.location))

	if _, err := s.cron.AddFunc(s.expression, func() {
		job(time.Now().In(s.location))
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", s.expression, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		select {
		case <-time.After(s.startupDelay):
			job(time.Now().In(s.location))
		case <-runCtx.Done():
		}
	}()

	s.cron.Start()
	s.log.Info("scheduler started", "expression", s.expression, "timezone", s.location.String())

	return nil
}

func (s *CronScheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
