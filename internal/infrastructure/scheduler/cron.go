package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsHarvester/internal/ports"
)

// CronScheduler triggers a job on a standard five-field cron expression.
// A tick that fires while the previous run is still going is skipped.
type CronScheduler struct {
	spec       string
	location   *time.Location
	runOnStart bool
	logger     *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopped chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, runOnStart bool, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{spec: spec, location: loc, runOnStart: runOnStart, logger: log}
}

// Start registers job and begins ticking until Stop or ctx cancellation.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	schedule, err := cron.ParseStandard(c.spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(c.logger.Handler(), slog.LevelDebug))
	guarded := cron.SkipIfStillRunning(cronLogger)(cron.FuncJob(func() {
		job(time.Now().In(c.location))
	}))

	c.cron = cron.New(cron.WithLocation(c.location), cron.WithLogger(cronLogger))
	c.cron.Schedule(schedule, guarded)
	c.cron.Start()
	stopped := make(chan struct{})
	c.stopped = stopped
	c.logger.Info("scheduler started", "spec", c.spec, "next", schedule.Next(time.Now().In(c.location)))

	if c.runOnStart {
		go guarded.Run()
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.Background())
		case <-stopped:
		}
	}()

	return nil
}

// Stop halts the cron loop and waits for a running job, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr, stopped := c.cron, c.stopped
	c.cron, c.stopped = nil, nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}
	close(stopped)

	done := cr.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
