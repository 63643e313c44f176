// Package journal reads foreground transition events from an
// append-only NDJSON log written by the platform collector. The
// collector owns the file format; this side only ever reads.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goodtune/appwatch/internal/events"
	"github.com/rs/zerolog"
)

// Source serves event queries from a journal file. Each query re-reads
// the file so concurrent callers always see a consistent snapshot of
// whatever the collector has flushed so far.
type Source struct {
	path   string
	logger zerolog.Logger
}

// New creates a journal-backed event source.
func New(path string, logger zerolog.Logger) *Source {
	return &Source{
		path:   path,
		logger: logger.With().Str("component", "event-journal").Logger(),
	}
}

// QueryEvents returns journal events with timestamps in [start, end),
// ordered by non-decreasing timestamp.
func (s *Source) QueryEvents(ctx context.Context, start, end time.Time) ([]events.UsageEvent, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]events.UsageEvent, 0, len(all))
	for _, ev := range all {
		if ev.Timestamp.Before(start) || !ev.Timestamp.Before(end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// QueryDailyTotals derives per-app, per-day foreground totals from the
// journal. This is the coarse collector-side metric used by the weekly
// view; it pairs transitions per calendar day and ignores sessions
// left open at day end, so it intentionally answers a blunter question
// than live reconstruction.
func (s *Source) QueryDailyTotals(ctx context.Context, start, end time.Time) ([]events.DailyTotal, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	type dayApp struct {
		day   string
		appID string
	}
	totals := make(map[dayApp]*events.DailyTotal)
	open := make(map[dayApp]time.Time)

	for _, ev := range all {
		if ev.Timestamp.Before(start) || ev.Timestamp.After(end) {
			continue
		}
		key := dayApp{day: ev.Timestamp.Format("2006-01-02"), appID: ev.AppID}

		if _, ok := totals[key]; !ok {
			totals[key] = &events.DailyTotal{AppID: ev.AppID, FirstSeen: ev.Timestamp}
		}

		switch ev.Kind {
		case events.KindForegroundEnter:
			open[key] = ev.Timestamp
		case events.KindForegroundExit:
			if enter, ok := open[key]; ok {
				totals[key].ForegroundTime += ev.Timestamp.Sub(enter)
				delete(open, key)
			}
		}
	}

	out := make([]events.DailyTotal, 0, len(totals))
	for _, dt := range totals {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})
	return out, nil
}

func (s *Source) readAll(ctx context.Context) ([]events.UsageEvent, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Collector has not written anything yet.
			return nil, nil
		}
		return nil, fmt.Errorf("open event journal: %w", err)
	}
	defer f.Close()

	var out []events.UsageEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev events.UsageEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			// A torn tail line from an in-flight collector write is
			// expected; skip it rather than failing the whole query.
			s.logger.Debug().Int("line", line).Err(err).Msg("Skipping unparseable journal line")
			continue
		}
		out = append(out, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event journal: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
