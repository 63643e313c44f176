package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/appwatch/internal/alert"
	"github.com/goodtune/appwatch/internal/appmeta"
	"github.com/goodtune/appwatch/internal/config"
	"github.com/goodtune/appwatch/internal/events/journal"
	"github.com/goodtune/appwatch/internal/metrics"
	"github.com/goodtune/appwatch/internal/monitor"
	"github.com/goodtune/appwatch/internal/storage"
	"github.com/goodtune/appwatch/internal/storage/bolt"
	"github.com/goodtune/appwatch/internal/storage/redis"
	"github.com/goodtune/appwatch/internal/systemd"
	"github.com/goodtune/appwatch/internal/usage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AppWatch monitor daemon",
	Long:  `Start the AppWatch daemon: the threshold monitor loop plus the metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting AppWatch")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Initialize usage queries over the collector's event journal
	queries, err := buildQueries(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("journal", cfg.Tracking.EventJournal).
		Str("app_index", cfg.Tracking.AppIndex).
		Msg("Usage queries initialized")

	// Initialize alert dispatcher
	dispatcher, err := buildDispatcher(cfg.Notify, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("sink", cfg.Notify.Sink).
		Str("channel", cfg.Notify.Channel).
		Msg("Alert dispatcher initialized")

	// Initialize threshold monitor
	usageMonitor := monitor.New(
		queries,
		store.Limits(),
		dispatcher,
		monitor.Config{
			PollInterval:   parseDuration(cfg.Monitor.PollInterval, monitor.DefaultPollInterval),
			HourlyLookback: parseDuration(cfg.Monitor.HourlyLookback, monitor.DefaultHourlyLookback),
		},
		logger,
	)

	monitorCtx, stopMonitor := context.WithCancel(cmd.Context())
	defer stopMonitor()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		usageMonitor.Run(monitorCtx)
	}()

	logger.Info().Msg("Threshold monitor started")

	// Initialize Metrics Server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Metrics.BindAddress, cfg.Metrics.Port)
		metricsServer = metrics.NewServer(metricsAddr, logger)

		// Use systemd socket-activated listener if available
		if sdListeners.Activated && sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}

		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start Metrics Server: %w", err)
		}

		logger.Info().
			Str("addr", metricsAddr).
			Msg("Metrics Server started")
	}

	logger.Info().Msg("AppWatch startup complete")

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	// Stop the monitor loop and wait for an in-flight check to finish
	stopMonitor()
	<-monitorDone

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping Metrics Server")
		}
	}

	logger.Info().Msg("AppWatch stopped")

	return nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "bolt"
	}

	switch storageType {
	case "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (must be 'bolt' or 'redis')", storageType)
	}
}

// buildQueries wires the event journal, app metadata, and classifier
// into the usage query layer.
func buildQueries(cfg *config.Config, logger zerolog.Logger) (*usage.Queries, error) {
	source := journal.New(cfg.Tracking.EventJournal, logger)

	index, err := appmeta.LoadStaticProvider(cfg.Tracking.AppIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load app index: %w", err)
	}

	cacheSize := cfg.Tracking.MetadataCacheSize
	if cacheSize <= 0 {
		cacheSize = appmeta.DefaultCacheSize
	}
	meta, err := appmeta.NewCached(index, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata cache: %w", err)
	}

	classifier := usage.NewClassifier(meta, cfg.Tracking.AllowList, logger)

	return usage.NewQueries(source, meta, classifier, cfg.Tracking.HostAppID, logger), nil
}

// buildDispatcher builds the notification sink chain from config.
func buildDispatcher(cfg config.NotifyConfig, logger zerolog.Logger) (*alert.Dispatcher, error) {
	var sink alert.Sink
	switch cfg.Sink {
	case "desktop":
		sink = alert.NewExecSink(logger)
	case "log":
		sink = alert.NewLogSink(logger)
	default:
		return nil, fmt.Errorf("unsupported notify sink: %s (must be 'desktop' or 'log')", cfg.Sink)
	}

	if realert := parseDuration(cfg.MinRealert, 0); realert > 0 {
		sink = alert.NewThrottle(sink, realert)
	}

	return alert.NewDispatcher(sink, cfg.Channel, logger), nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
