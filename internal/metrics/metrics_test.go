package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m == nil {
		t.Fatal("expected metrics, got nil")
	}

	// Verify all metrics are initialized
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"EngineInvocations", m.EngineInvocations},
		{"EngineDuration", m.EngineDuration},
		{"EngineErrors", m.EngineErrors},
		{"BatchRuns", m.BatchRuns},
		{"BatchItems", m.BatchItems},
		{"BatchSize", m.BatchSize},
		{"AuditWrites", m.AuditWrites},
		{"KeysGenerated", m.KeysGenerated},
		{"HTTPRequests", m.HTTPRequests},
		{"HTTPDuration", m.HTTPDuration},
		{"Errors", m.Errors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestObserveInvocation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveInvocation("encrypt", "1.8", 500*time.Millisecond, "")
	m.ObserveInvocation("decrypt", "17", 2*time.Second, "ENGINE-002")

	if got := testutil.ToFloat64(m.EngineInvocations.WithLabelValues("encrypt", "1.8", "true")); got != 1 {
		t.Errorf("EngineInvocations encrypt/1.8/true = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.EngineInvocations.WithLabelValues("decrypt", "17", "false")); got != 1 {
		t.Errorf("EngineInvocations decrypt/17/false = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.EngineErrors.WithLabelValues("decrypt", "ENGINE-002")); got != 1 {
		t.Errorf("EngineErrors = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.Errors.WithLabelValues("ENGINE-002")); got != 1 {
		t.Errorf("Errors = %v, want 1", got)
	}

	if got := testutil.CollectAndCount(m.EngineDuration); got != 2 {
		t.Errorf("EngineDuration series = %v, want 2", got)
	}
}

func TestObserveBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveBatch("encrypt", "file", 3, 1)

	if got := testutil.ToFloat64(m.BatchRuns.WithLabelValues("encrypt", "file")); got != 1 {
		t.Errorf("BatchRuns = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.BatchItems.WithLabelValues("encrypt", "true")); got != 3 {
		t.Errorf("BatchItems success = %v, want 3", got)
	}

	if got := testutil.ToFloat64(m.BatchItems.WithLabelValues("encrypt", "false")); got != 1 {
		t.Errorf("BatchItems failed = %v, want 1", got)
	}
}

func TestObserveAuditWriteAndRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAuditWrite(nil)
	m.ObserveAuditWrite(errors.New("disk full"))
	m.ObserveRequest("/api/v1/encrypt", 200, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.AuditWrites.WithLabelValues("true")); got != 1 {
		t.Errorf("AuditWrites true = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.AuditWrites.WithLabelValues("false")); got != 1 {
		t.Errorf("AuditWrites false = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/encrypt", "200")); got != 1 {
		t.Errorf("HTTPRequests = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	// None of these may panic
	m.ObserveInvocation("encrypt", "1.8", time.Second, "")
	m.ObserveBatch("encrypt", "batch", 1, 0)
	m.ObserveAuditWrite(nil)
	m.ObserveRequest("/", 200, time.Second)
}
