package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_TickAndRead(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TickStarted()
	m.TickStarted()
	m.ReadStarted()
	m.ReadStarted()

	if got := testutil.ToFloat64(m.ticks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 2 {
		t.Errorf("in flight = %v, want 2", got)
	}

	m.ReadCompleted(OutcomeApplied, 10*time.Millisecond)
	m.ReadCompleted(OutcomeDroppedStatus, 20*time.Millisecond)

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.reads.WithLabelValues(OutcomeApplied)); got != 1 {
		t.Errorf("applied = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reads.WithLabelValues(OutcomeDroppedStatus)); got != 1 {
		t.Errorf("dropped_status = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reads.WithLabelValues(OutcomeFailed)); got != 0 {
		t.Errorf("failed = %v, want 0", got)
	}
}

func TestMetrics_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	// 4 families: ticks, reads, duration, in flight
	if n, err := testutil.GatherAndCount(reg); err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	} else if n < 4 {
		t.Errorf("gathered %d series, want at least 4", n)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	// must not panic
	m.TickStarted()
	m.ReadStarted()
	m.ReadCompleted(OutcomeFailed, time.Second)
}

func TestMetrics_ReadWithoutTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ReadStarted()
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.ReadCompleted(OutcomeApplied, time.Millisecond)

	if got := testutil.ToFloat64(m.ticks); got != 0 {
		t.Errorf("ticks = %v, want 0 for a read outside the timer", got)
	}
}
