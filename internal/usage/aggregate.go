package usage

import (
	"sort"
	"strings"
	"time"

	"github.com/goodtune/appwatch/internal/appmeta"
)

// MinVisibleUsage is the noise floor for the user-facing aggregate.
// Totals at or below it are transient app switches, not usage.
const MinVisibleUsage = 60 * time.Second

// UnknownAppName labels apps whose identifier yields no usable name.
const UnknownAppName = "Unknown Application"

// Total is one app's aggregate over a window.
type Total struct {
	AppID    string
	AppName  string
	Duration time.Duration
}

// SumByApp sums interval durations per app.
func SumByApp(intervals []Interval) map[string]time.Duration {
	totals := make(map[string]time.Duration)
	for _, iv := range intervals {
		totals[iv.AppID] += iv.Duration()
	}
	return totals
}

// sortedTotals builds a Total slice ordered descending by duration.
// Ties keep the order in which apps first appear in the interval
// stream, so repeated queries over the same events stay stable.
func sortedTotals(intervals []Interval, name func(appID string) string, keep func(appID string, d time.Duration) bool) []Total {
	sums := SumByApp(intervals)

	order := make([]string, 0, len(sums))
	seen := make(map[string]bool, len(sums))
	for _, iv := range intervals {
		if !seen[iv.AppID] {
			seen[iv.AppID] = true
			order = append(order, iv.AppID)
		}
	}

	out := make([]Total, 0, len(order))
	for _, appID := range order {
		d := sums[appID]
		if keep != nil && !keep(appID, d) {
			continue
		}
		out = append(out, Total{AppID: appID, AppName: name(appID), Duration: d})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return out
}

// DisplayName resolves a user-facing name for an app identifier. The
// metadata lookup may fail; the chain then degrades to a label derived
// from the identifier and finally to a fixed placeholder.
func DisplayName(meta appmeta.Provider, appID string) string {
	name := appID
	if meta != nil {
		if label, err := meta.Label(appID); err == nil && label != "" {
			name = label
		}
	}

	// A bare reverse-DNS stub is not a real label; fall back to the
	// last identifier segment.
	if strings.HasPrefix(name, "com.") && len(name) < 8 {
		if idx := strings.LastIndex(appID, "."); idx >= 0 && idx+1 < len(appID) {
			name = appID[idx+1:]
		} else {
			name = appID
		}
	}
	if strings.TrimSpace(name) == "" {
		name = appID
	}
	if strings.TrimSpace(name) == "" {
		name = UnknownAppName
	}
	return name
}
