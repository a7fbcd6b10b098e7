package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hydrograph-etl/internal/pipeline"
	"github.com/robfig/cron/v3"
)

// Runner performs one scan-and-load run.
type Runner interface {
	RunOnce(ctx context.Context) (pipeline.Report, error)
}

// Scheduler triggers runs on a cron schedule. A run that is still in progress
// when the next one is due causes that trigger to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
	ctx    context.Context
}

// New creates a Scheduler. ctx bounds every triggered run.
func New(ctx context.Context, runner Runner, logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		logger: logger,
		ctx:    ctx,
	}
}

// Register schedules runs. schedule has six fields (seconds first) or is a
// descriptor such as "@hourly" or "@every 15m".
func (s *Scheduler) Register(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RunNow); err != nil {
		return fmt.Errorf("register scan schedule %q: %w", schedule, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out, run still in progress")
	}
}

// RunNow executes a run immediately, e.g. on start.
func (s *Scheduler) RunNow() {
	if s.ctx.Err() != nil {
		return
	}
	s.logger.Info("scheduled run starting")
	if _, err := s.runner.RunOnce(s.ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
