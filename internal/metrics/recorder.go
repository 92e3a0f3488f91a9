// Package metrics records storage and synchronization metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "snippetmanager"

// Recorder receives storage and sync observations.
type Recorder interface {
	// ObserveStorage records one adapter operation (op is "load" or "save").
	ObserveStorage(op, medium string, result Result, duration time.Duration)
	// SetQueueDepth reports the number of pending jobs in a key's write queue.
	SetQueueDepth(key string, depth int)
	// SetSyncState reports a key's hook state as its numeric value.
	SetSyncState(key string, state int)
}

// Result classifies a storage outcome.
type Result string

const (
	ResultOK       Result = "ok"
	ResultNotFound Result = "not_found"
	ResultError    Result = "error"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	ops        *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	queueDepth *prometheus.GaugeVec
	syncState  *prometheus.GaugeVec
}

// NewPrometheus builds a recorder and registers its collectors on reg.
// A nil reg registers on a fresh private registry.
func NewPrometheus(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PrometheusRecorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Storage adapter operations by op, medium and result.",
		}, []string{"op", "medium", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_seconds",
			Help:      "Storage adapter operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op", "medium"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_queue_depth",
			Help:      "Pending jobs in a key's write queue.",
		}, []string{"key"}),
		syncState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_state",
			Help:      "Hook state per key (0 uninitialized, 1 loading, 2 ready).",
		}, []string{"key"}),
	}
	for _, c := range []prometheus.Collector{r.ops, r.durations, r.queueDepth, r.syncState} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveStorage implements Recorder.
func (r *PrometheusRecorder) ObserveStorage(op, medium string, result Result, duration time.Duration) {
	r.ops.WithLabelValues(op, medium, string(result)).Inc()
	r.durations.WithLabelValues(op, medium).Observe(duration.Seconds())
}

// SetQueueDepth implements Recorder.
func (r *PrometheusRecorder) SetQueueDepth(key string, depth int) {
	r.queueDepth.WithLabelValues(key).Set(float64(depth))
}

// SetSyncState implements Recorder.
func (r *PrometheusRecorder) SetSyncState(key string, state int) {
	r.syncState.WithLabelValues(key).Set(float64(state))
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveStorage(string, string, Result, time.Duration) {}
func (Nop) SetQueueDepth(string, int)                            {}
func (Nop) SetSyncState(string, int)                             {}
