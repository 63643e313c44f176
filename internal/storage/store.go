// Package storage defines the persisted limit store interface. Usage
// intervals are never persisted; the only durable state this system
// owns is the per-app limit configuration.
package storage

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when a record is missing from storage. For
// limits, absence means "no limit configured", never zero.
var ErrNotFound = errors.New("storage: record not found")

// MaxDailyLimitMinutes caps a daily limit at one week of minutes.
const MaxDailyLimitMinutes = 1440 * 7

// Store is the root storage interface.
type Store interface {
	Close() error
	Limits() LimitStore
}

// LimitStore manages per-app usage limits. Backends key records by the
// app identifier for the daily limit and by appID + ":hourly" for the
// hourly limit. Writes are last-writer-wins.
type LimitStore interface {
	// GetDaily returns the daily limit in minutes, or ErrNotFound if
	// none is configured.
	GetDaily(ctx context.Context, appID string) (int, error)

	// GetHourly returns the hourly limit in minutes, or ErrNotFound if
	// none is configured.
	GetHourly(ctx context.Context, appID string) (int, error)

	SetDaily(ctx context.Context, appID string, minutes int) error
	SetHourly(ctx context.Context, appID string, minutes int) error

	// Clear removes both limits for an app as one operation. Clearing
	// an app with no limits is not an error.
	Clear(ctx context.Context, appID string) error

	// List returns every app with at least one configured limit.
	List(ctx context.Context) ([]LimitRecord, error)
}

// LimitRecord holds the configured limits for one app. A nil field
// means that limit is not configured.
type LimitRecord struct {
	AppID         string `json:"app_id"`
	DailyMinutes  *int   `json:"daily_minutes,omitempty"`
	HourlyMinutes *int   `json:"hourly_minutes,omitempty"`
}

// HourlySuffix derives the hourly limit key from an app identifier.
const HourlySuffix = ":hourly"

// EnsureDir creates dir with sane permissions if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
