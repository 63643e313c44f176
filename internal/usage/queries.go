package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/appwatch/internal/appmeta"
	"github.com/goodtune/appwatch/internal/events"
	"github.com/rs/zerolog"
)

// Queries bundles the event source and metadata provider behind the
// query shapes the rest of the system needs. Each call fetches its own
// event batch and reconstructs from scratch; there is no shared
// mutable state, so concurrent callers are independent.
type Queries struct {
	source     events.Source
	meta       appmeta.Provider
	classifier *Classifier
	hostAppID  string
	logger     zerolog.Logger
}

// NewQueries creates the query service.
func NewQueries(source events.Source, meta appmeta.Provider, classifier *Classifier, hostAppID string, logger zerolog.Logger) *Queries {
	return &Queries{
		source:     source,
		meta:       meta,
		classifier: classifier,
		hostAppID:  hostAppID,
		logger:     logger.With().Str("component", "usage-queries").Logger(),
	}
}

// DaySoFar returns today's user-facing per-app totals: intervals since
// local midnight, clipped to the day, open sessions dropped, noise and
// non-user apps filtered, sorted descending by duration.
func (q *Queries) DaySoFar(ctx context.Context, now time.Time) ([]Total, error) {
	midnight := Midnight(now)

	batch, err := q.source.QueryEvents(ctx, midnight, now)
	if err != nil {
		return nil, fmt.Errorf("query day events: %w", err)
	}

	intervals := Reconstruct(batch, ReconstructOptions{
		WindowStart:  midnight,
		WindowEnd:    now,
		ClipToWindow: true,
	})

	keep := func(appID string, d time.Duration) bool {
		if d <= MinVisibleUsage {
			return false
		}
		if appID == q.hostAppID {
			return false
		}
		return q.classifier.IsUserApp(appID)
	}

	return sortedTotals(intervals, func(appID string) string {
		return DisplayName(q.meta, appID)
	}, keep), nil
}

// TotalsBetween returns raw per-app totals for [start, end): no window
// clipping, no noise floor, no classification, open sessions dropped.
// The monitor's hourly lookback uses this shape.
func (q *Queries) TotalsBetween(ctx context.Context, start, end time.Time) ([]Total, error) {
	batch, err := q.source.QueryEvents(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	intervals := Reconstruct(batch, ReconstructOptions{})

	return sortedTotals(intervals, func(appID string) string {
		return DisplayName(q.meta, appID)
	}, nil), nil
}

// AppUsageToday returns one app's total usage since local midnight
// with any open session credited up to now. Only the limit-checking
// path uses this flush-to-now shape; display paths never do.
func (q *Queries) AppUsageToday(ctx context.Context, appID string, now time.Time) (time.Duration, error) {
	midnight := Midnight(now)

	batch, err := q.source.QueryEvents(ctx, midnight, now)
	if err != nil {
		return 0, fmt.Errorf("query day events: %w", err)
	}

	scoped := batch[:0:0]
	for _, ev := range batch {
		if ev.AppID == appID {
			scoped = append(scoped, ev)
		}
	}

	intervals := Reconstruct(scoped, ReconstructOptions{FlushOpenAt: now})

	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total, nil
}

// Midnight returns the start of the day containing t, in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
