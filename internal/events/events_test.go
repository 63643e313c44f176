package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestKindUnmarshalNormalizes(t *testing.T) {
	cases := []struct {
		input string
		want  Kind
	}{
		{`"FOREGROUND_ENTER"`, KindForegroundEnter},
		{`"foreground_enter"`, KindForegroundEnter},
		{`"Foreground_Exit"`, KindForegroundExit},
	}

	for _, tc := range cases {
		var k Kind
		if err := json.Unmarshal([]byte(tc.input), &k); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.input, err)
		}
		if k != tc.want {
			t.Fatalf("unmarshal %s: expected %s, got %s", tc.input, tc.want, k)
		}
	}
}

func TestKindUnmarshalRejectsUnknown(t *testing.T) {
	var k Kind
	if err := json.Unmarshal([]byte(`"SCREEN_OFF"`), &k); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestMemorySourceWindow(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	source := NewMemorySource(
		UsageEvent{AppID: "a", Timestamp: base, Kind: KindForegroundEnter},
		UsageEvent{AppID: "a", Timestamp: base.Add(time.Hour), Kind: KindForegroundExit},
	)

	evs, err := source.QueryEvents(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	// [start, end): the exit at exactly end is excluded
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
}

func TestMemorySourceKeepsOrder(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	source := NewMemorySource()
	source.Append(UsageEvent{AppID: "b", Timestamp: base.Add(time.Minute), Kind: KindForegroundEnter})
	source.Append(UsageEvent{AppID: "a", Timestamp: base, Kind: KindForegroundEnter})

	evs, err := source.QueryEvents(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if len(evs) != 2 || evs[0].AppID != "a" {
		t.Fatalf("expected time-ordered events, got %+v", evs)
	}
}
