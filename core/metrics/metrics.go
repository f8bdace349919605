// Package metrics exposes Prometheus collectors for bot updates and conversation turns.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
)

const namespace = "fishshop"

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
	reg *prometheus.Registry

	Updates      *prometheus.CounterVec
	RateLimited  prometheus.Counter
	Turns        *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	SendFailures prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates received, by kind.",
		}, []string{"kind"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_rate_limited_total",
			Help:      "Telegram updates dropped by the per-user rate limit.",
		}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_turns_total",
			Help:      "Conversation turns, by state the turn started in and result status.",
		}, []string{"state", "status"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_turn_duration_seconds",
			Help:      "Conversation turn duration in seconds, by result status.",
			Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1.0, 3.0, 5.0, 10.0},
		}, []string{"status"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Asynchronous notices that could not be delivered.",
		}),
	}
	m.reg.MustRegister(m.Updates, m.RateLimited, m.Turns, m.TurnDuration, m.SendFailures)
	return m
}

// ObserveTurn records one finished conversation turn.
func (m *Metrics) ObserveTurn(state, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(state, status).Inc()
	m.TurnDuration.WithLabelValues(status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log := logger.Component("metrics")
	log.Info("metrics listener", slog.String("event", "listen"), slog.String("listen", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("metrics listener stopped", slog.String("event", "shutdown"))
		return server.Shutdown(shutdownCtx)
	}
}
