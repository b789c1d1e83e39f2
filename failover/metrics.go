package failover

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

const metricsShutdownTimeout = 5 * time.Second

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amqp_failover_attempts_total",
			Help: "Connection attempts per broker address and result",
		},
		[]string{"address", "result"},
	)

	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amqp_failover_attempt_duration_seconds",
			Help:    "Duration of connection attempts in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"address", "result"},
	)

	exhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "amqp_failover_exhausted_total",
			Help: "Connect calls in which every broker address failed",
		},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "amqp_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"address"},
	)
)

func recordAttempt(address, result string, d time.Duration) {
	labels := prometheus.Labels{"address": address, "result": result}
	attemptsTotal.With(labels).Inc()
	if result != resultSkipped {
		attemptDuration.With(labels).Observe(d.Seconds())
	}
}

func recordExhausted() {
	exhaustedTotal.Inc()
}

func recordBreakerState(address string, state gobreaker.State) {
	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateHalfOpen:
		stateValue = 1
	case gobreaker.StateOpen:
		stateValue = 2
	}

	circuitBreakerState.With(prometheus.Labels{"address": address}).Set(stateValue)
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer returns an HTTP server exposing /metrics and /health on addr.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ServeMetrics serves NewMetricsServer on ln until ctx is done, then shuts
// the server down. It returns nil after a clean shutdown.
func ServeMetrics(ctx context.Context, ln net.Listener) error {
	server := NewMetricsServer(ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
