package usage

import (
	"context"
	"fmt"
	"time"
)

// DayBucket is one day of the weekly view.
type DayBucket struct {
	Label   string
	Weekday time.Weekday
	Minutes int
}

// WeeklyBuckets partitions the last 7 days into day buckets for one
// app, oldest to newest, labeled by weekday. It sums the collector's
// coarse daily foreground totals in whole minutes; this is a separate
// code path from live interval reconstruction on purpose, since it
// answers "historical bucketed total", not "live precise total".
// Days without data report zero, never go missing.
func (q *Queries) WeeklyBuckets(ctx context.Context, appID string, now time.Time) ([]DayBucket, error) {
	start := now.AddDate(0, 0, -6)

	buckets := make([]DayBucket, 0, 7)
	index := make(map[time.Weekday]int, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		index[day.Weekday()] = i
		buckets = append(buckets, DayBucket{
			Label:   day.Weekday().String()[:3],
			Weekday: day.Weekday(),
		})
	}

	totals, err := q.source.QueryDailyTotals(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}

	for _, dt := range totals {
		if dt.AppID != appID {
			continue
		}
		if i, ok := index[dt.FirstSeen.Weekday()]; ok {
			buckets[i].Minutes += int(dt.ForegroundTime.Minutes())
		}
	}

	return buckets, nil
}
