// Package usage turns foreground transition events into per-app usage
// durations: interval reconstruction, window aggregation, and the
// weekly bucketed view.
package usage

import (
	"time"

	"github.com/goodtune/appwatch/internal/events"
)

// Interval is one contiguous foreground session. Derived per query,
// never persisted.
type Interval struct {
	AppID string
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// ReconstructOptions control how a single reconstruction pass treats
// window boundaries and sessions left open at the end of the batch.
type ReconstructOptions struct {
	// WindowStart/WindowEnd bound the query window when ClipToWindow
	// is set.
	WindowStart time.Time
	WindowEnd   time.Time

	// ClipToWindow accepts an interval only if it lies entirely inside
	// [WindowStart, WindowEnd]. A session that began before the window
	// is excluded whole, not truncated to the boundary. That matches
	// the shipped behavior the display path depends on; see DESIGN.md
	// before changing it.
	ClipToWindow bool

	// FlushOpenAt, when non-zero, credits each session still open
	// after the batch with the duration from its start up to this
	// instant. The limit-checking path sets it to "now"; display
	// paths leave it zero and drop open sessions.
	FlushOpenAt time.Time
}

// Reconstruct converts an ordered event batch into closed intervals.
// It is pure: open-session state lives only for the duration of the
// call and is never shared across calls or goroutines.
//
// A ForegroundEnter overwrites any open start for the same app
// (last-enter-wins); a ForegroundExit without a matching open start is
// orphaned and ignored.
func Reconstruct(batch []events.UsageEvent, opts ReconstructOptions) []Interval {
	openSessions := make(map[string]time.Time)
	intervals := make([]Interval, 0, len(batch)/2)

	emit := func(iv Interval) {
		if iv.End.Before(iv.Start) {
			return
		}
		if opts.ClipToWindow {
			if iv.Start.Before(opts.WindowStart) || iv.End.After(opts.WindowEnd) {
				return
			}
		}
		intervals = append(intervals, iv)
	}

	for _, ev := range batch {
		switch ev.Kind {
		case events.KindForegroundEnter:
			openSessions[ev.AppID] = ev.Timestamp
		case events.KindForegroundExit:
			start, ok := openSessions[ev.AppID]
			if !ok {
				continue
			}
			emit(Interval{AppID: ev.AppID, Start: start, End: ev.Timestamp})
			delete(openSessions, ev.AppID)
		}
	}

	if !opts.FlushOpenAt.IsZero() {
		for appID, start := range openSessions {
			if opts.FlushOpenAt.Before(start) {
				continue
			}
			emit(Interval{AppID: appID, Start: start, End: opts.FlushOpenAt})
		}
	}

	return intervals
}
