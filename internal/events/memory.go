package events

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySource is an in-memory Source. It backs tests and event-log
// replay; the daemon itself uses the journal source.
type MemorySource struct {
	mu     sync.RWMutex
	events []UsageEvent
	totals []DailyTotal
}

// NewMemorySource creates a source pre-loaded with the given events.
func NewMemorySource(evs ...UsageEvent) *MemorySource {
	s := &MemorySource{}
	s.Append(evs...)
	return s
}

// Append adds events, keeping the backing slice time-ordered.
func (s *MemorySource) Append(evs ...UsageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evs...)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Timestamp.Before(s.events[j].Timestamp)
	})
}

// SetDailyTotals replaces the daily totals returned by QueryDailyTotals.
func (s *MemorySource) SetDailyTotals(totals []DailyTotal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = append([]DailyTotal(nil), totals...)
}

// QueryEvents returns events with timestamps in [start, end).
func (s *MemorySource) QueryEvents(ctx context.Context, start, end time.Time) ([]UsageEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UsageEvent, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Timestamp.Before(start) || !ev.Timestamp.Before(end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// QueryDailyTotals returns totals whose first-seen instant falls in [start, end].
func (s *MemorySource) QueryDailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DailyTotal, 0, len(s.totals))
	for _, dt := range s.totals {
		if dt.FirstSeen.Before(start) || dt.FirstSeen.After(end) {
			continue
		}
		out = append(out, dt)
	}
	return out, nil
}
