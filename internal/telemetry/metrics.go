package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — счётчики и гистограммы producer'а и consumer'а.
type Metrics struct {
	DialAttempts     prometheus.Counter
	TasksPublished   prometheus.Counter
	TasksProcessed   prometheus.Counter
	ParseFailures    prometheus.Counter
	ResultsPublished prometheus.Counter
	IdlePolls        prometheus.Counter
	ComputeDuration  prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, метрики не регистрируются (удобно для тестов и --metrics-addr="").
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DialAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matq_dial_attempts_total",
			Help: "Broker connection attempts, including retries",
		}),
		TasksPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matq_tasks_published_total",
			Help: "Tasks published to the tasks queue",
		}),
		TasksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matq_tasks_processed_total",
			Help: "Tasks computed and acknowledged",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matq_parse_failures_total",
			Help: "Malformed task messages acknowledged and skipped",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matq_results_published_total",
			Help: "Results published to the results queue",
		}),
		IdlePolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matq_idle_polls_total",
			Help: "Consume attempts that timed out without a message",
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matq_compute_duration_seconds",
			Help:    "Wall-clock time of matrix multiplication",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.DialAttempts,
			m.TasksPublished,
			m.TasksProcessed,
			m.ParseFailures,
			m.ResultsPublished,
			m.IdlePolls,
			m.ComputeDuration,
		)
	}

	return m
}

// NewMetricsMux возвращает mux с /healthz и /metrics.
func NewMetricsMux(gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics запускает HTTP сервер метрик до отмены ctx.
// Пустой addr — сервер не запускается.
func ServeMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	if addr == "" {
		return nil
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewMetricsMux(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
