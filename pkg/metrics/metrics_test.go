package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition("Form", "Creating")
	m.Transition("Form", "Creating")
	m.OrderCreated()
	m.Polled(10*time.Millisecond, nil)
	m.Polled(10*time.Millisecond, errors.New("timeout"))
	m.ProofConfirmed(errors.New("rejected"))
	m.ValidationFailed("InvalidAddress")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageTransitions.WithLabelValues("Form", "Creating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusPolls.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProofConfirmations.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("InvalidAddress")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("a", "b")
		m.OrderCreated()
		m.OrderFailed()
		m.Polled(time.Second, nil)
		m.ProofConfirmed(nil)
		m.ValidationFailed("x")
	})
}
