package usage

import (
	"github.com/goodtune/appwatch/internal/appmeta"
	"github.com/rs/zerolog"
)

// defaultAllowList names well-known user-facing apps that platform
// metadata flags as system components.
var defaultAllowList = []string{
	"com.android.chrome",
	"com.google.android.youtube",
	"com.google.android.dialer",
	"com.samsung.android.dialer",
	"com.android.dialer",
	"com.google.android.apps.messaging",
	"com.samsung.android.messaging",
	"com.android.mms",
}

// Classifier decides whether an app identifier counts as a user app
// for display purposes. Metadata failures classify as "not a user
// app": unknown identifiers stay hidden rather than cluttering the
// aggregate.
type Classifier struct {
	meta      appmeta.Provider
	allowList map[string]struct{}

	// DefaultHandlers, when set, is invoked per classification to
	// resolve identifiers that are allow-listed dynamically, such as
	// the current default SMS and dialer handlers.
	DefaultHandlers func() []string

	logger zerolog.Logger
}

// NewClassifier builds a classifier. extraAllow entries are added on
// top of the built-in allow-list.
func NewClassifier(meta appmeta.Provider, extraAllow []string, logger zerolog.Logger) *Classifier {
	allow := make(map[string]struct{}, len(defaultAllowList)+len(extraAllow))
	for _, id := range defaultAllowList {
		allow[id] = struct{}{}
	}
	for _, id := range extraAllow {
		if id != "" {
			allow[id] = struct{}{}
		}
	}

	return &Classifier{
		meta:      meta,
		allowList: allow,
		logger:    logger.With().Str("component", "app-classifier").Logger(),
	}
}

// IsUserApp reports whether usage for this identifier should be shown
// to the user.
func (c *Classifier) IsUserApp(appID string) bool {
	if _, ok := c.allowList[appID]; ok {
		return true
	}

	if c.DefaultHandlers != nil {
		for _, id := range c.DefaultHandlers() {
			if id != "" && id == appID {
				return true
			}
		}
	}

	system, err := c.meta.IsSystemApp(appID)
	if err != nil {
		c.logger.Debug().Str("app_id", appID).Err(err).Msg("Metadata lookup failed, excluding app")
		return false
	}
	return !system
}
