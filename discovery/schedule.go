package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is what the scheduler triggers.
type Runner interface {
	RunOnce(ctx context.Context) (bool, error)
}

// Scheduler runs a Runner at fixed times of day.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
	ctx    context.Context
}

// CronSpec converts an "HH:MM" time of day to a daily cron spec.
func CronSpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// NewScheduler registers one daily entry per time in times. Ticks run
// with ctx; a tick that finds the previous run still active is skipped.
func NewScheduler(ctx context.Context, runner Runner, times []string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{logger: logger})),
		runner: runner,
		logger: logger,
		ctx:    ctx,
	}

	for _, hhmm := range times {
		spec, err := CronSpec(hhmm)
		if err != nil {
			return nil, err
		}
		if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", hhmm, err)
		}
		logger.Info("scheduled daily run", "time", hhmm)
	}

	return s, nil
}

// Start starts the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron loop and returns a context that is done once the
// running tick, if any, has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries returns the next run time of every schedule entry.
func (s *Scheduler) Entries() []time.Time {
	var next []time.Time
	for _, e := range s.cron.Entries() {
		next = append(next, e.Next)
	}
	return next
}

func (s *Scheduler) tick() {
	_, err := s.runner.RunOnce(s.ctx)
	if errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("skipping scheduled run, previous run still active")
	}
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
