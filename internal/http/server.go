// Package http serves health checks and prometheus metrics for the adapter.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	CacheSize       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qobuzdl_api_requests_total",
				Help: "Total number of Qobuz API requests",
			},
			[]string{"endpoint", "status"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qobuzdl_errors_total",
				Help: "Total number of errors",
			},
			[]string{"component", "type"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qobuzdl_api_request_duration_seconds",
				Help:    "Qobuz API request round-trip time",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qobuzdl_track_cache_hits_total",
				Help: "Total number of track cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qobuzdl_track_cache_misses_total",
				Help: "Total number of track cache misses",
			},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qobuzdl_track_cache_size",
				Help: "Current number of cached track payloads",
			},
		),
	}

	reg.MustRegister(
		metrics.RequestsTotal,
		metrics.ErrorsTotal,
		metrics.RequestDuration,
		metrics.CacheHits,
		metrics.CacheMisses,
		metrics.CacheSize,
	)

	return metrics
}

func setupRoutes(logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","service":"qobuzdl"}`)); err != nil {
			logger.Debug("Failed to write healthz response", zap.Error(err))
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ready","service":"qobuzdl"}`)); err != nil {
			logger.Debug("Failed to write readyz response", zap.Error(err))
		}
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>qobuzdl</title>
</head>
<body>
    <h1>qobuzdl</h1>
    <p>Qobuz catalog adapter</p>

    <h2>Endpoints</h2>
    <div><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div><a href="/healthz">Health</a> - Health check</div>
    <div><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`)); err != nil {
			logger.Debug("Failed to write home response", zap.Error(err))
		}
	}
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, setupRoutes(logger)),
		metrics: newMetrics(prometheus.DefaultRegisterer),
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}

// RecordRequest and ObserveRequest implement the client's metrics hook.
func (s *Server) RecordRequest(endpoint, status string) {
	s.metrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func (s *Server) ObserveRequest(endpoint string, d time.Duration) {
	s.metrics.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (s *Server) RecordError(component, errorType string) {
	s.metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func (s *Server) RecordCacheHit() {
	s.metrics.CacheHits.Inc()
}

func (s *Server) RecordCacheMiss() {
	s.metrics.CacheMisses.Inc()
}

func (s *Server) SetCacheSize(size int) {
	s.metrics.CacheSize.Set(float64(size))
}
