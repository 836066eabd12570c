package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"DailyBriefing/internal/ports"
)

// CronScheduler runs the daily job on a standard five-field cron expression,
// evaluated in the configured timezone.
type CronScheduler struct {
	spec   string
	loc    *time.Location
	logger *slog.Logger
	cron   *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates the expression up front so misconfiguration
// surfaces at startup, not at first trigger.
func NewCronScheduler(spec string, loc *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &CronScheduler{
		spec:   spec,
		loc:    loc,
		logger: logger.With("component", "scheduler"),
	}, nil
}

// Start registers the job and begins the cron loop. Start is not reentrant;
// a second call without Stop is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	c.cron = cron.New(cron.WithLocation(c.loc))
	_, err := c.cron.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(c.loc))
	})
	if err != nil {
		c.cron = nil
		return fmt.Errorf("register cron job: %w", err)
	}

	c.cron.Start()
	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.loc.String())
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	done := c.cron.Stop().Done()
	c.cron = nil

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
