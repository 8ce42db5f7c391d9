package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics are the orchestrator's counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	StageTransitions   *prometheus.CounterVec
	OrdersCreated      prometheus.Counter
	OrderFailures      prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	StatusPolls        *prometheus.CounterVec
	PollDuration       prometheus.Histogram
	ProofConfirmations *prometheus.CounterVec
}

// New registers the metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		StageTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anonswap_stage_transitions_total",
			Help: "Swap lifecycle stage transitions",
		}, []string{"from", "to"}),

		OrdersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "anonswap_orders_created_total",
			Help: "Swap orders accepted by the exchange",
		}),

		OrderFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "anonswap_order_failures_total",
			Help: "Swap order creation failures",
		}),

		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anonswap_validation_failures_total",
			Help: "Swap requests rejected before reaching the exchange",
		}, []string{"reason"}),

		StatusPolls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anonswap_status_polls_total",
			Help: "Exchange status fetches by result",
		}, []string{"result"}),

		PollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "anonswap_status_poll_duration_seconds",
			Help:    "Exchange status fetch latency",
			Buckets: prometheus.DefBuckets,
		}),

		ProofConfirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anonswap_proof_confirmations_total",
			Help: "Best-effort proof confirmation submissions by result",
		}, []string{"result"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.StageTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) OrderFailed() {
	if m == nil {
		return
	}
	m.OrderFailures.Inc()
}

func (m *Metrics) ValidationFailed(reason string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Polled(took time.Duration, err error) {
	if m == nil {
		return
	}
	m.StatusPolls.WithLabelValues(result(err)).Inc()
	m.PollDuration.Observe(took.Seconds())
}

func (m *Metrics) ProofConfirmed(err error) {
	if m == nil {
		return
	}
	m.ProofConfirmations.WithLabelValues(result(err)).Inc()
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
