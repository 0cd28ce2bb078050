// Package refresh keeps the cached datasets warm by polling the fetchers on
// a fixed interval.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// DailySource returns the daily aggregate series.
type DailySource interface {
	GetData(ctx context.Context, refresh bool) ([]domain.DailyRecord, error)
}

// NamesSource returns the victims registry.
type NamesSource interface {
	GetNames(ctx context.Context, refresh bool) ([]domain.Victim, error)
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Scheduler calls both fetchers once per interval without forcing a refresh,
// so each fetcher's own cache policy decides whether the network is used.
type Scheduler struct {
	daily    DailySource
	names    NamesSource
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	dailyLoaded atomic.Bool
	namesLoaded atomic.Bool
}

// New creates a Scheduler. A nil clock selects the real clock.
func New(daily DailySource, names NamesSource, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		daily:    daily,
		names:    names,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once both datasets have been loaded at least
// once, or an error naming what is still missing.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	var missing []error
	if !s.dailyLoaded.Load() {
		missing = append(missing, errors.New("daily series not loaded yet"))
	}
	if !s.namesLoaded.Load() {
		missing = append(missing, errors.New("names registry not loaded yet"))
	}
	return errors.Join(missing...)
}

// Run performs a cycle immediately and then one per interval until ctx is
// cancelled. A failed cycle is retried with exponential backoff until it
// succeeds.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("refresh scheduler started", "interval", s.interval)
	s.metrics.RefreshRunning.Set(1)
	defer s.metrics.RefreshRunning.Set(0)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if !s.cycleWithRetry(ctx) {
			s.logger.Info("refresh scheduler stopping", "reason", ctx.Err())
			return nil
		}

		select {
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// cycleWithRetry runs cycles until one succeeds. Returns false if ctx was
// cancelled first.
func (s *Scheduler) cycleWithRetry(ctx context.Context) bool {
	backoff := initialBackoff
	for {
		start := s.clock.Now()
		err := s.cycle(ctx)
		if err == nil {
			s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		s.metrics.RefreshFailures.Inc()
		s.logger.Error("refresh cycle failed", "error", err, "retry_in", backoff)
		if !sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

// cycle loads both datasets. Both are attempted even when the first fails.
func (s *Scheduler) cycle(ctx context.Context) error {
	var errs []error
	if records, err := s.daily.GetData(ctx, false); err != nil {
		errs = append(errs, fmt.Errorf("daily: %w", err))
	} else {
		s.dailyLoaded.Store(true)
		s.logger.Debug("daily series current", "rows", len(records))
	}
	if victims, err := s.names.GetNames(ctx, false); err != nil {
		errs = append(errs, fmt.Errorf("names: %w", err))
	} else {
		s.namesLoaded.Store(true)
		s.logger.Debug("names registry current", "rows", len(victims))
	}
	return errors.Join(errs...)
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
