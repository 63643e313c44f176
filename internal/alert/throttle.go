package alert

import (
	"context"
	"sync"
	"time"
)

// Throttle wraps a sink with a per-key minimum re-alert interval. The
// engine itself never suppresses repeat breaches; it relies on the
// sink's replace-by-key behavior. A sink without that behavior (plain
// log output, some desktop daemons) would stack one notification per
// poll, so this wrapper drops sends that land inside the window.
type Throttle struct {
	inner    Sink
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewThrottle wraps sink. interval <= 0 disables throttling entirely.
func NewThrottle(sink Sink, interval time.Duration) *Throttle {
	return &Throttle{
		inner:    sink,
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Notify implements Sink. Throttled sends succeed without reaching the
// inner sink.
func (t *Throttle) Notify(ctx context.Context, dedupKey, title, body string) error {
	if t.interval > 0 {
		t.mu.Lock()
		now := t.now()
		if sent, ok := t.last[dedupKey]; ok && now.Sub(sent) < t.interval {
			t.mu.Unlock()
			return nil
		}
		t.last[dedupKey] = now
		t.mu.Unlock()
	}

	return t.inner.Notify(ctx, dedupKey, title, body)
}
