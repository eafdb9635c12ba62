package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// RunFunc performs one crawl pass.
type RunFunc func(ctx context.Context) error

// parser accepts standard five-field expressions and descriptors such as
// "@hourly" or "@every 6h".
var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs a RunFunc on a cron schedule.
type Scheduler struct {
	spec       string
	schedule   cron.Schedule
	run        RunFunc
	runAtStart bool
	location   *time.Location
	logger     *slog.Logger

	group singleflight.Group
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunAtStart runs one pass immediately when Run starts.
func WithRunAtStart(enabled bool) Option {
	return func(s *Scheduler) {
		s.runAtStart = enabled
	}
}

// WithLocation sets the time zone used to interpret the schedule.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler for the given cron expression.
func New(spec string, run RunFunc, opts ...Option) (*Scheduler, error) {
	if run == nil {
		return nil, ErrNoRunFunc
	}

	schedule, err := Parse(spec)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		spec:     spec,
		schedule: schedule,
		run:      run,
		location: time.Local,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Parse validates a cron expression.
func Parse(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, spec, err)
	}
	return schedule, nil
}

// Next returns the first scheduled time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Trigger runs one pass now. If a pass is already running, Trigger waits for
// it and returns its result with shared set to true.
func (s *Scheduler) Trigger(ctx context.Context) (shared bool, err error) {
	_, err, shared = s.group.Do("run", func() (any, error) {
		return nil, s.run(ctx)
	})
	return shared, err
}

// Run starts the schedule and blocks until ctx is cancelled.
// Pass errors are logged and do not stop the schedule. Run waits for an
// active pass to return before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.location),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(s.spec, func() {
		s.logger.Info("scheduled crawl triggered", "schedule", s.spec)
		s.trigger(ctx)
	}); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, s.spec, err)
	}

	var wg sync.WaitGroup
	if s.runAtStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("startup crawl triggered")
			s.trigger(ctx)
		}()
	}

	c.Start()
	s.logger.Info("scheduler started",
		"schedule", s.spec,
		"next_run", s.Next(time.Now()).Format(time.RFC3339),
	)

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	wg.Wait()

	s.logger.Info("scheduler stopped")
	return nil
}

// trigger runs a pass and logs its outcome.
func (s *Scheduler) trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	shared, err := s.Trigger(ctx)
	if shared {
		s.logger.Debug("joined a crawl pass that was already running")
	}
	if err != nil {
		s.logger.Error("crawl pass failed", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
