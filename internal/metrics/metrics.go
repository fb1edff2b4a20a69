// Package metrics exposes daemon counters on an optional Prometheus endpoint.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slacktray/slacktray/internal/readstate"
)

// Metrics bundles the daemon's Prometheus collectors.
type Metrics struct {
	registry      *prometheus.Registry
	events        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	reconnects    prometheus.Counter
	pingFailures  prometheus.Counter
	restarts      prometheus.Counter
	status        prometheus.Gauge
}

// New creates collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slacktray",
			Name:      "events_total",
			Help:      "RTM events received, by kind",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slacktray",
			Name:      "notifications_total",
			Help:      "Desktop notifications sent, by kind",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slacktray",
			Name:      "notifications_dropped_total",
			Help:      "Notifications dropped by the rate limiter",
		}, []string{"kind"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slacktray",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts after a keepalive timeout or goodbye",
		}),
		pingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slacktray",
			Name:      "ping_failures_total",
			Help:      "Keepalive probes that could not be sent",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slacktray",
			Name:      "worker_restarts_total",
			Help:      "Worker restarts by the supervisor",
		}),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "slacktray",
			Name:      "status",
			Help:      "Current tray status (0 green, 1 yellow, 2 red)",
		}),
	}

	registry.MustRegister(
		m.events,
		m.notifications,
		m.dropped,
		m.reconnects,
		m.pingFailures,
		m.restarts,
		m.status,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEvent counts one RTM event of the given kind. Nil-safe like every
// recording method here.
func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// ObserveNotification counts a notification handed to the desktop.
func (m *Metrics) ObserveNotification(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

// ObserveDropped counts a notification dropped by the rate limiter.
func (m *Metrics) ObserveDropped(kind string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(kind).Inc()
}

// IncReconnects counts a keepalive-driven reconnect attempt.
func (m *Metrics) IncReconnects() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// IncPingFailures counts a keepalive probe that could not be sent.
func (m *Metrics) IncPingFailures() {
	if m == nil {
		return
	}
	m.pingFailures.Inc()
}

// IncRestarts counts a supervisor restart of the worker.
func (m *Metrics) IncRestarts() {
	if m == nil {
		return
	}
	m.restarts.Inc()
}

// SetStatus records the current tray status.
func (m *Metrics) SetStatus(s readstate.Status) {
	if m == nil {
		return
	}
	m.status.Set(float64(s.Level()))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[metrics] listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
