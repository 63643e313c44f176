package alert

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// captureSink records every delivered notification.
type captureSink struct {
	keys   []string
	titles []string
	bodies []string
	err    error
}

func (s *captureSink) Notify(ctx context.Context, dedupKey, title, body string) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, dedupKey)
	s.titles = append(s.titles, title)
	s.bodies = append(s.bodies, body)
	return nil
}

func TestDispatcherDedupKey(t *testing.T) {
	d := NewDispatcher(&captureSink{}, "usage-limit", zerolog.Nop())

	if got := d.DedupKey("YouTube"); got != "usage-limit:YouTube" {
		t.Fatalf("expected usage-limit:YouTube, got %q", got)
	}
}

func TestDispatchSendsHourlyAndDailyBodies(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, "usage-limit", zerolog.Nop())

	d.Dispatch(context.Background(), Breach{
		AppID: "org.example.game", AppName: "Game",
		Period: PeriodHourly, MinutesUsed: 42, LimitMinutes: 30,
	})
	d.Dispatch(context.Background(), Breach{
		AppID: "org.example.game", AppName: "Game",
		Period: PeriodDaily, MinutesUsed: 95, LimitMinutes: 90,
	})

	if len(sink.bodies) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sink.bodies))
	}
	if !strings.Contains(sink.bodies[0], "in the last hour") {
		t.Fatalf("hourly body missing period phrase: %q", sink.bodies[0])
	}
	if !strings.Contains(sink.bodies[1], "today") {
		t.Fatalf("daily body missing period phrase: %q", sink.bodies[1])
	}
	if sink.titles[0] != "⏰ Game limit exceeded" {
		t.Fatalf("unexpected title: %q", sink.titles[0])
	}
}

func TestDispatchRepeatBreachesShareDedupKey(t *testing.T) {
	// The engine re-dispatches every poll; suppression is the sink's
	// job via replace-by-key.
	sink := &captureSink{}
	d := NewDispatcher(sink, "usage-limit", zerolog.Nop())

	breach := Breach{AppID: "org.example.game", AppName: "Game", Period: PeriodDaily, MinutesUsed: 95, LimitMinutes: 90}
	d.Dispatch(context.Background(), breach)
	d.Dispatch(context.Background(), breach)

	if len(sink.keys) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sink.keys))
	}
	if sink.keys[0] != sink.keys[1] {
		t.Fatalf("expected identical dedup keys, got %q and %q", sink.keys[0], sink.keys[1])
	}
}

func TestDispatchSwallowsUnavailableSink(t *testing.T) {
	sink := &captureSink{err: ErrUnavailable}
	d := NewDispatcher(sink, "usage-limit", zerolog.Nop())

	// Must not panic, error, or deliver anything.
	d.Dispatch(context.Background(), Breach{AppName: "Game", Period: PeriodDaily})

	if len(sink.keys) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(sink.keys))
	}
}

func TestDispatchSwallowsDeliveryError(t *testing.T) {
	sink := &captureSink{err: errors.New("dbus timeout")}
	d := NewDispatcher(sink, "usage-limit", zerolog.Nop())

	d.Dispatch(context.Background(), Breach{AppName: "Game", Period: PeriodHourly})
}

func TestExecSinkUnavailableWithoutBinary(t *testing.T) {
	// Force LookPath to miss by emptying PATH.
	t.Setenv("PATH", t.TempDir())

	sink := NewExecSink(zerolog.Nop())
	if err := sink.Notify(context.Background(), "k", "t", "b"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLogSinkAlwaysSucceeds(t *testing.T) {
	sink := NewLogSink(zerolog.Nop())
	if err := sink.Notify(context.Background(), "k", "t", "b"); err != nil {
		t.Fatalf("LogSink.Notify: %v", err)
	}
}
