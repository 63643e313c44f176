// Package monitor runs the periodic limit check: recompute recent
// usage, compare against configured limits, hand breaches to the alert
// dispatcher.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goodtune/appwatch/internal/alert"
	"github.com/goodtune/appwatch/internal/metrics"
	"github.com/goodtune/appwatch/internal/storage"
	"github.com/goodtune/appwatch/internal/usage"
	"github.com/rs/zerolog"
)

const (
	// DefaultPollInterval is how often usage is rechecked.
	DefaultPollInterval = 5 * time.Second

	// DefaultHourlyLookback is the window for the hourly limit check.
	DefaultHourlyLookback = time.Hour
)

// Config holds monitor configuration
type Config struct {
	PollInterval   time.Duration
	HourlyLookback time.Duration
}

// Monitor polls usage on a fixed interval and emits breach
// notifications. It is a best-effort poller: a slow check delays
// nothing and overlapping ticks are skipped, never stacked.
type Monitor struct {
	queries    *usage.Queries
	limits     storage.LimitStore
	dispatcher *alert.Dispatcher
	interval   time.Duration
	lookback   time.Duration
	clock      Clock
	logger     zerolog.Logger

	// checking guards against overlapping polls: at most one check is
	// in flight at any time.
	checking atomic.Bool
}

// New creates a monitor.
func New(queries *usage.Queries, limits storage.LimitStore, dispatcher *alert.Dispatcher, config Config, logger zerolog.Logger) *Monitor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.HourlyLookback <= 0 {
		config.HourlyLookback = DefaultHourlyLookback
	}

	return &Monitor{
		queries:    queries,
		limits:     limits,
		dispatcher: dispatcher,
		interval:   config.PollInterval,
		lookback:   config.HourlyLookback,
		clock:      RealClock{},
		logger:     logger.With().Str("component", "threshold-monitor").Logger(),
	}
}

// SetClock sets the clock used for window computation (for testing).
func (m *Monitor) SetClock(clock Clock) {
	m.clock = clock
}

// Run executes the poll loop until ctx is canceled. No iteration
// failure is fatal; the loop only ends with the context.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info().
		Dur("poll_interval", m.interval).
		Dur("hourly_lookback", m.lookback).
		Msg("Threshold monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Threshold monitor stopped")
			return
		case <-ticker.C:
			if !m.checking.CompareAndSwap(false, true) {
				m.logger.Debug().Msg("Previous check still running, skipping tick")
				continue
			}
			if err := m.CheckOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error().Err(err).Msg("Usage check failed")
			}
			m.checking.Store(false)
		}
	}
}

// CheckOnce performs a single poll: hourly-lookback totals per app,
// then per-app limit comparison. A failure for one app never aborts
// the remaining apps.
func (m *Monitor) CheckOnce(ctx context.Context) error {
	started := time.Now()
	now := m.clock.Now()

	totals, err := m.queries.TotalsBetween(ctx, now.Add(-m.lookback), now)
	if err != nil {
		return fmt.Errorf("hourly lookback: %w", err)
	}

	observed := 0
	for _, total := range totals {
		if total.Duration <= 0 {
			continue
		}
		observed++

		if err := m.checkApp(ctx, total, now); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			metrics.CheckErrors.WithLabelValues(total.AppID).Inc()
			m.logger.Warn().Err(err).
				Str("app_id", total.AppID).
				Msg("Per-app check failed, continuing with remaining apps")
		}
	}

	metrics.ChecksTotal.Inc()
	metrics.AppsObserved.Set(float64(observed))
	metrics.CheckDuration.Observe(time.Since(started).Seconds())
	return nil
}

// checkApp evaluates both limits for one app. Minutes are truncated
// and a breach requires strictly more than the limit.
func (m *Monitor) checkApp(ctx context.Context, total usage.Total, now time.Time) error {
	hourlyLimit, err := m.limits.GetHourly(ctx, total.AppID)
	switch {
	case err == nil:
		usedMinutes := int(total.Duration.Minutes())
		if usedMinutes > hourlyLimit {
			metrics.BreachesTotal.WithLabelValues(total.AppID, string(alert.PeriodHourly)).Inc()
			m.dispatcher.Dispatch(ctx, alert.Breach{
				AppID:        total.AppID,
				AppName:      total.AppName,
				Period:       alert.PeriodHourly,
				MinutesUsed:  usedMinutes,
				LimitMinutes: hourlyLimit,
			})
		}
	case errors.Is(err, storage.ErrNotFound):
		// no hourly limit configured
	default:
		return fmt.Errorf("read hourly limit: %w", err)
	}

	dailyLimit, err := m.limits.GetDaily(ctx, total.AppID)
	switch {
	case err == nil:
		// The daily comparison recomputes today's usage with the open
		// session flushed to now; the lookback total above is not
		// reused here.
		todayUsage, err := m.queries.AppUsageToday(ctx, total.AppID, now)
		if err != nil {
			return fmt.Errorf("daily usage: %w", err)
		}
		usedMinutes := int(todayUsage.Minutes())
		if usedMinutes > dailyLimit {
			metrics.BreachesTotal.WithLabelValues(total.AppID, string(alert.PeriodDaily)).Inc()
			m.dispatcher.Dispatch(ctx, alert.Breach{
				AppID:        total.AppID,
				AppName:      total.AppName,
				Period:       alert.PeriodDaily,
				MinutesUsed:  usedMinutes,
				LimitMinutes: dailyLimit,
			})
		}
	case errors.Is(err, storage.ErrNotFound):
		// no daily limit configured
	default:
		return fmt.Errorf("read daily limit: %w", err)
	}

	return nil
}
