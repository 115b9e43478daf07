// Package metrics provides Prometheus metrics for the assistant service.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const subsystem = "assistant"

// Metrics collects counters for the webhook endpoint and the orchestrator.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDuration        prometheus.Histogram
	RequestsProcessed   prometheus.Counter
	RequestErrors       prometheus.Counter
	AgentSteps          prometheus.Counter
	ToolFailures        *prometheus.CounterVec
	OrchestratorLatency prometheus.Histogram

	server *http.Server
	log    logger.Logger
}

// New creates a Metrics instance with all collectors registered.
func New(log logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: log,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by status code",
	}, []string{"code"})

	m.HTTPDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1.0, 3.0, 5.0},
	})

	m.RequestsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "requests_processed_total",
		Help:      "Mention requests handed to the orchestrator",
	})

	m.RequestErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "request_errors_total",
		Help:      "Orchestrator runs that produced an error reply",
	})

	m.AgentSteps = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "agent_steps_total",
		Help:      "Collaboration steps observed across all requests",
	})

	m.ToolFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "tool_failures_total",
		Help:      "Tool-set construction failures by role",
	}, []string{"role"})

	m.OrchestratorLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "orchestrator_duration_seconds",
		Help:      "Wall time of a full collaboration run",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	m.reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPDuration,
		m.RequestsProcessed,
		m.RequestErrors,
		m.AgentSteps,
		m.ToolFailures,
		m.OrchestratorLatency,
	)

	return m
}

// Handler returns the /metrics handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen serves /metrics on the given port until the context is canceled.
func (m *Metrics) Listen(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", http.NotFoundHandler())

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		m.log.Info("Starting metrics listener", logger.IntField("port", port))
		errChan <- m.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// HTTPMiddleware records request counts and durations.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.HTTPRequestsTotal.WithLabelValues(strconv.Itoa(sw.status)).Inc()
		m.HTTPDuration.Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
