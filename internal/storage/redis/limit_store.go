package redis

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/goodtune/appwatch/internal/storage"
	"github.com/redis/go-redis/v9"
)

const limitKeyPrefix = "appwatch:limit:"

type limitStore struct {
	client *redis.Client
}

func (s *limitStore) GetDaily(ctx context.Context, appID string) (int, error) {
	return s.get(ctx, appID)
}

func (s *limitStore) GetHourly(ctx context.Context, appID string) (int, error) {
	return s.get(ctx, appID+storage.HourlySuffix)
}

func (s *limitStore) SetDaily(ctx context.Context, appID string, minutes int) error {
	return s.client.Set(ctx, limitKeyPrefix+appID, minutes, 0).Err()
}

func (s *limitStore) SetHourly(ctx context.Context, appID string, minutes int) error {
	return s.client.Set(ctx, limitKeyPrefix+appID+storage.HourlySuffix, minutes, 0).Err()
}

// Clear deletes both limit keys with one DEL, so a concurrent reader
// never observes a half-cleared record.
func (s *limitStore) Clear(ctx context.Context, appID string) error {
	return s.client.Del(ctx,
		limitKeyPrefix+appID,
		limitKeyPrefix+appID+storage.HourlySuffix,
	).Err()
}

func (s *limitStore) List(ctx context.Context) ([]storage.LimitRecord, error) {
	records := make(map[string]*storage.LimitRecord)

	iter := s.client.Scan(ctx, 0, limitKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), limitKeyPrefix)

		value, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // deleted between scan and get
			}
			return nil, err
		}
		minutes, err := strconv.Atoi(value)
		if err != nil {
			continue
		}

		appID := key
		hourly := strings.HasSuffix(appID, storage.HourlySuffix)
		if hourly {
			appID = strings.TrimSuffix(appID, storage.HourlySuffix)
		}

		rec, ok := records[appID]
		if !ok {
			rec = &storage.LimitRecord{AppID: appID}
			records[appID] = rec
		}
		if hourly {
			rec.HourlyMinutes = &minutes
		} else {
			rec.DailyMinutes = &minutes
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	out := make([]storage.LimitRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out, nil
}

func (s *limitStore) get(ctx context.Context, key string) (int, error) {
	value, err := s.client.Get(ctx, limitKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}
	minutes, err := strconv.Atoi(value)
	if err != nil {
		return 0, storage.ErrNotFound
	}
	return minutes, nil
}
