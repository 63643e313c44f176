package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind identifies a foreground transition.
type Kind string

const (
	// KindForegroundEnter marks an app becoming the foreground app.
	KindForegroundEnter Kind = "FOREGROUND_ENTER"

	// KindForegroundExit marks an app leaving the foreground.
	KindForegroundExit Kind = "FOREGROUND_EXIT"
)

// UnmarshalJSON normalizes the kind to uppercase and validates it.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	normalized := Kind(strings.ToUpper(s))
	switch normalized {
	case KindForegroundEnter, KindForegroundExit:
		*k = normalized
		return nil
	default:
		return fmt.Errorf("invalid event kind: %s", s)
	}
}

// MarshalJSON ensures uppercase output.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(k))
}

// UsageEvent is one foreground transition reported by the collector.
// Events within a single query result are ordered by non-decreasing
// timestamp; ordering across separate queries is not guaranteed.
type UsageEvent struct {
	AppID     string    `json:"app_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
}

// DailyTotal is a coarse per-day foreground total as reported by the
// collector side, independent of event reconstruction.
type DailyTotal struct {
	AppID          string        `json:"app_id"`
	FirstSeen      time.Time     `json:"first_seen"`
	ForegroundTime time.Duration `json:"foreground_time"`
}

// Source provides foreground transition events for a time range.
// Implementations must be safe for concurrent callers.
type Source interface {
	// QueryEvents returns events with timestamps in [start, end),
	// ordered by non-decreasing timestamp.
	QueryEvents(ctx context.Context, start, end time.Time) ([]UsageEvent, error)

	// QueryDailyTotals returns per-app, per-day foreground totals
	// overlapping [start, end].
	QueryDailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotal, error)
}
