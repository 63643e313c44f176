package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Monitor metrics
	ChecksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appwatch_checks_total",
			Help: "Total number of monitor polls completed",
		},
	)

	CheckErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appwatch_check_errors_total",
			Help: "Per-app failures inside a monitor poll",
		},
		[]string{"app"},
	)

	CheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appwatch_check_duration_seconds",
			Help:    "Monitor poll duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BreachesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appwatch_limit_breaches_total",
			Help: "Limit breaches detected, by app and period",
		},
		[]string{"app", "period"},
	)

	// Alert metrics
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appwatch_notifications_sent_total",
			Help: "Breach notifications handed to the sink",
		},
	)

	NotificationsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appwatch_notifications_skipped_total",
			Help: "Breach notifications skipped, by reason",
		},
		[]string{"reason"},
	)

	// Usage metrics
	AppsObserved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "appwatch_apps_observed",
			Help: "Apps with nonzero usage in the last monitor poll",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ChecksTotal,
		CheckErrors,
		CheckDuration,
		BreachesTotal,
		NotificationsSent,
		NotificationsSkipped,
		AppsObserved,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
