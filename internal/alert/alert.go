// Package alert turns breach decisions into notification requests.
// Delivery is best-effort: the engine never treats a failed or
// impossible delivery as an error.
package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodtune/appwatch/internal/metrics"
	"github.com/rs/zerolog"
)

// Period identifies which limit a breach refers to.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodHourly Period = "hourly"
)

// Breach is one detected limit violation.
type Breach struct {
	AppID        string
	AppName      string
	Period       Period
	MinutesUsed  int
	LimitMinutes int
}

// ErrUnavailable is returned by a sink that cannot deliver at all,
// for example when the desktop notifier is missing or the user denied
// notification permission. Dispatchers skip silently on it.
var ErrUnavailable = errors.New("alert: sink unavailable")

// Sink delivers a notification. The sink owns replace-by-key
// semantics: repeated sends with the same dedup key must update the
// live notification rather than stack a new one.
type Sink interface {
	Notify(ctx context.Context, dedupKey, title, body string) error
}

// Dispatcher builds and sends breach notifications.
type Dispatcher struct {
	sink    Sink
	channel string
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher sending through the given sink.
// channel names the notification channel and becomes part of every
// dedup key.
func NewDispatcher(sink Sink, channel string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		channel: channel,
		logger:  logger.With().Str("component", "alert-dispatcher").Logger(),
	}
}

// DedupKey derives the stable notification slot for an app. Repeat
// breaches for the same app land in the same slot, so the sink
// replaces instead of duplicating.
func (d *Dispatcher) DedupKey(appName string) string {
	return fmt.Sprintf("%s:%s", d.channel, appName)
}

// Dispatch sends one breach notification. It never returns an error:
// an unavailable sink is a silent no-op and a transient delivery
// failure is logged and dropped, per the engine's error taxonomy.
func (d *Dispatcher) Dispatch(ctx context.Context, b Breach) {
	title := fmt.Sprintf("⏰ %s limit exceeded", b.AppName)

	var body string
	switch b.Period {
	case PeriodHourly:
		body = fmt.Sprintf("You used %s for %d minutes in the last hour, over your %d minute limit. Remove the limit from the app's detail page to dismiss this alert.",
			b.AppName, b.MinutesUsed, b.LimitMinutes)
	default:
		body = fmt.Sprintf("You used %s for %d minutes today, over your %d minute limit. Remove the limit from the app's detail page to dismiss this alert.",
			b.AppName, b.MinutesUsed, b.LimitMinutes)
	}

	err := d.sink.Notify(ctx, d.DedupKey(b.AppName), title, body)
	switch {
	case err == nil:
		metrics.NotificationsSent.Inc()
		d.logger.Debug().
			Str("app_id", b.AppID).
			Str("period", string(b.Period)).
			Int("minutes_used", b.MinutesUsed).
			Msg("Breach notification dispatched")
	case errors.Is(err, ErrUnavailable):
		metrics.NotificationsSkipped.WithLabelValues("unavailable").Inc()
	default:
		metrics.NotificationsSkipped.WithLabelValues("error").Inc()
		d.logger.Warn().Err(err).
			Str("app_id", b.AppID).
			Msg("Breach notification delivery failed")
	}
}
