package alert

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// ExecSink delivers notifications through the desktop notifier
// (notify-send). The x-canonical-private-synchronous hint carries the
// dedup key so a repeat send replaces the live notification instead of
// stacking a new one.
type ExecSink struct {
	binary string
	logger zerolog.Logger
}

// NewExecSink locates the desktop notifier. A missing binary is not an
// error: the sink is created unavailable and every send becomes a
// silent no-op.
func NewExecSink(logger zerolog.Logger) *ExecSink {
	sink := &ExecSink{
		logger: logger.With().Str("component", "desktop-sink").Logger(),
	}

	path, err := exec.LookPath("notify-send")
	if err != nil {
		sink.logger.Warn().Msg("notify-send not found, breach notifications will be skipped")
		return sink
	}
	sink.binary = path
	return sink
}

// Notify implements Sink.
func (s *ExecSink) Notify(ctx context.Context, dedupKey, title, body string) error {
	if s.binary == "" {
		return ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, s.binary,
		"--urgency=critical",
		"--hint=string:x-canonical-private-synchronous:"+dedupKey,
		title, body,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// LogSink writes notifications to the log. Used on headless hosts and
// in tests.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "log-sink").Logger()}
}

// Notify implements Sink.
func (s *LogSink) Notify(ctx context.Context, dedupKey, title, body string) error {
	s.logger.Info().
		Str("dedup_key", dedupKey).
		Str("title", title).
		Str("body", body).
		Msg("Usage limit notification")
	return nil
}
