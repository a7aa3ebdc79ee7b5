// Package scheduler runs the periodic maintenance jobs: the daily credit
// reset and system log retention.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// CreditResetter refills daily credit counters. *quota.Ledger satisfies it.
type CreditResetter interface {
	ResetDailyCredits(ctx context.Context) (int64, error)
}

// LogPurger deletes expired system logs.
type LogPurger func(ctx context.Context) (int64, error)

type Config struct {
	// DailyCreditReset is a cron expression. Empty disables the reset.
	DailyCreditReset string
	// LogCleanup is a cron expression. Empty disables log retention.
	LogCleanup       string
}

type Scheduler struct {
	cron *cron.Cron
}

func New(cfg Config, credits CreditResetter, purge LogPurger) (*Scheduler, error) {
	c := cron.New()

	if cfg.DailyCreditReset != "" && credits != nil {
		_, err := c.AddFunc(cfg.DailyCreditReset, func() {
			run("daily_credit_reset", credits.ResetDailyCredits)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule daily credit reset %q: %w", cfg.DailyCreditReset, err)
		}
	}

	if cfg.LogCleanup != "" && purge != nil {
		_, err := c.AddFunc(cfg.LogCleanup, func() {
			run("log_cleanup", purge)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule log cleanup %q: %w", cfg.LogCleanup, err)
		}
	}

	return &Scheduler{cron: c}, nil
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}

func run(name string, fn func(context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := fn(ctx)
	if err != nil {
		slog.Error("scheduled job failed", "action", name, "error", err)
		return
	}
	slog.Info("scheduled job completed", "action", name, "rows", n, "latency_ms", float64(time.Since(start).Milliseconds()))
}
