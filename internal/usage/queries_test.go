package usage

import (
	"context"
	"testing"
	"time"

	"github.com/goodtune/appwatch/internal/appmeta"
	"github.com/goodtune/appwatch/internal/events"
	"github.com/rs/zerolog"
)

const testHostApp = "com.goodtune.appwatch"

func newTestQueries(t *testing.T, meta *appmeta.StaticProvider, evs ...events.UsageEvent) (*Queries, *events.MemorySource) {
	t.Helper()
	source := events.NewMemorySource(evs...)
	classifier := NewClassifier(meta, nil, zerolog.Nop())
	return NewQueries(source, meta, classifier, testHostApp, zerolog.Nop()), source
}

func userAppMeta() *appmeta.StaticProvider {
	return appmeta.NewStaticProvider(map[string]appmeta.Entry{
		"org.example.game":     {Label: "Game"},
		"org.example.reader":   {Label: "Reader"},
		"com.android.systemui": {Label: "System UI", System: true},
		testHostApp:            {Label: "AppWatch"},
	})
}

func TestDaySoFarFiltersAndSorts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	midnight := Midnight(now)
	ts := func(min int) time.Time { return midnight.Add(time.Duration(min) * time.Minute) }

	q, _ := newTestQueries(t, userAppMeta(),
		// 30 minutes: shown first
		events.UsageEvent{AppID: "org.example.game", Timestamp: ts(60), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "org.example.game", Timestamp: ts(90), Kind: events.KindForegroundExit},
		// 10 minutes: shown second
		events.UsageEvent{AppID: "org.example.reader", Timestamp: ts(100), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "org.example.reader", Timestamp: ts(110), Kind: events.KindForegroundExit},
		// system app: filtered
		events.UsageEvent{AppID: "com.android.systemui", Timestamp: ts(120), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "com.android.systemui", Timestamp: ts(125), Kind: events.KindForegroundExit},
		// host app: filtered
		events.UsageEvent{AppID: testHostApp, Timestamp: ts(130), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: testHostApp, Timestamp: ts(140), Kind: events.KindForegroundExit},
	)

	totals, err := q.DaySoFar(context.Background(), now)
	if err != nil {
		t.Fatalf("DaySoFar: %v", err)
	}

	if len(totals) != 2 {
		t.Fatalf("expected 2 totals, got %d: %+v", len(totals), totals)
	}
	if totals[0].AppName != "Game" || totals[0].Duration != 30*time.Minute {
		t.Fatalf("expected Game 30m first, got %s %s", totals[0].AppName, totals[0].Duration)
	}
	if totals[1].AppName != "Reader" || totals[1].Duration != 10*time.Minute {
		t.Fatalf("expected Reader 10m second, got %s %s", totals[1].AppName, totals[1].Duration)
	}
}

func TestDaySoFarDropsNoiseAndOpenSessions(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	midnight := Midnight(now)

	q, _ := newTestQueries(t, userAppMeta(),
		// 45 seconds: under the floor
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(time.Hour), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(time.Hour + 45*time.Second), Kind: events.KindForegroundExit},
		// still open at query time: dropped on this path
		events.UsageEvent{AppID: "org.example.reader", Timestamp: midnight.Add(2 * time.Hour), Kind: events.KindForegroundEnter},
	)

	totals, err := q.DaySoFar(context.Background(), now)
	if err != nil {
		t.Fatalf("DaySoFar: %v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("expected no visible totals, got %+v", totals)
	}
}

func TestDaySoFarExcludesSessionSpanningMidnight(t *testing.T) {
	now := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	midnight := Midnight(now)

	q, _ := newTestQueries(t, userAppMeta(),
		// The enter landed yesterday, so today's batch only holds the
		// exit. That exit is orphaned and the session contributes
		// nothing, matching the no-truncation boundary rule.
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(-time.Hour), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(30 * time.Minute), Kind: events.KindForegroundExit},
	)

	totals, err := q.DaySoFar(context.Background(), now)
	if err != nil {
		t.Fatalf("DaySoFar: %v", err)
	}
	if len(totals) != 0 {
		t.Fatalf("expected spanning session to be excluded, got %+v", totals)
	}
}

func TestTotalsBetweenIsUnfiltered(t *testing.T) {
	start := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	q, _ := newTestQueries(t, userAppMeta(),
		// 30 seconds, system app: both would be filtered on the
		// display path but must survive here.
		events.UsageEvent{AppID: "com.android.systemui", Timestamp: start.Add(time.Minute), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "com.android.systemui", Timestamp: start.Add(time.Minute + 30*time.Second), Kind: events.KindForegroundExit},
		// open session: still dropped on this path
		events.UsageEvent{AppID: "org.example.game", Timestamp: start.Add(10 * time.Minute), Kind: events.KindForegroundEnter},
	)

	totals, err := q.TotalsBetween(context.Background(), start, end)
	if err != nil {
		t.Fatalf("TotalsBetween: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected 1 total, got %d: %+v", len(totals), totals)
	}
	if totals[0].AppID != "com.android.systemui" || totals[0].Duration != 30*time.Second {
		t.Fatalf("unexpected total: %+v", totals[0])
	}
}

func TestAppUsageTodayFlushesOpenSession(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	midnight := Midnight(now)

	q, _ := newTestQueries(t, userAppMeta(),
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(8 * time.Hour), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(9 * time.Hour), Kind: events.KindForegroundExit},
		// open since 11:30, credited up to noon
		events.UsageEvent{AppID: "org.example.game", Timestamp: midnight.Add(11*time.Hour + 30*time.Minute), Kind: events.KindForegroundEnter},
		// other apps never leak into the scoped total
		events.UsageEvent{AppID: "org.example.reader", Timestamp: midnight.Add(10 * time.Hour), Kind: events.KindForegroundEnter},
		events.UsageEvent{AppID: "org.example.reader", Timestamp: midnight.Add(10*time.Hour + 45*time.Minute), Kind: events.KindForegroundExit},
	)

	d, err := q.AppUsageToday(context.Background(), "org.example.game", now)
	if err != nil {
		t.Fatalf("AppUsageToday: %v", err)
	}
	if d != 90*time.Minute {
		t.Fatalf("expected 1h closed + 30m flushed = 90m, got %s", d)
	}
}

func TestAppUsageTodayNoEvents(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	q, _ := newTestQueries(t, userAppMeta())

	d, err := q.AppUsageToday(context.Background(), "org.example.game", now)
	if err != nil {
		t.Fatalf("AppUsageToday: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected zero usage, got %s", d)
	}
}

func TestMidnightKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2025, 3, 10, 23, 45, 0, 0, loc)

	m := Midnight(now)
	if m.Hour() != 0 || m.Minute() != 0 || m.Day() != 10 {
		t.Fatalf("unexpected midnight: %s", m)
	}
	if m.Location() != loc {
		t.Fatalf("midnight changed location: %s", m.Location())
	}
}
