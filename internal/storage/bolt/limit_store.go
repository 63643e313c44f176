package bolt

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/goodtune/appwatch/internal/storage"
	"go.etcd.io/bbolt"
)

type limitStore struct {
	db *bbolt.DB
}

func (s *limitStore) GetDaily(ctx context.Context, appID string) (int, error) {
	return s.get(ctx, appID)
}

func (s *limitStore) GetHourly(ctx context.Context, appID string) (int, error) {
	return s.get(ctx, appID+storage.HourlySuffix)
}

func (s *limitStore) SetDaily(ctx context.Context, appID string, minutes int) error {
	return s.put(ctx, appID, minutes)
}

func (s *limitStore) SetHourly(ctx context.Context, appID string, minutes int) error {
	return s.put(ctx, appID+storage.HourlySuffix, minutes)
}

// Clear removes both limit keys in a single transaction.
func (s *limitStore) Clear(ctx context.Context, appID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketLimits))
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(appID)); err != nil {
			return err
		}
		return b.Delete([]byte(appID + storage.HourlySuffix))
	})
}

func (s *limitStore) List(ctx context.Context) ([]storage.LimitRecord, error) {
	records := make(map[string]*storage.LimitRecord)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketLimits))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			minutes, err := strconv.Atoi(string(v))
			if err != nil {
				return nil // skip corrupt values
			}

			appID := string(k)
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
			return nil
		})
	})
	if err != nil {
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
	var minutes int
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketLimits))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(key))
		if value == nil {
			return storage.ErrNotFound
		}
		parsed, err := strconv.Atoi(string(value))
		if err != nil {
			return storage.ErrNotFound
		}
		minutes = parsed
		return nil
	})
	if err != nil {
		return 0, err
	}
	return minutes, nil
}

func (s *limitStore) put(ctx context.Context, key string, minutes int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketLimits))
		if b == nil {
			return storage.ErrNotFound
		}
		return b.Put([]byte(key), []byte(strconv.Itoa(minutes)))
	})
}
