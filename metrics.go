// FILE: lixenwraith/logpipe/metrics.go
package logpipe

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Delivery paths used as the "path" label
const (
	pathDirect = "direct"
	pathQueued = "queued"
	pathSystem = "system"
)

// Metrics exposes delivery counters as Prometheus collectors.
type Metrics struct {
	dispatched     *prometheus.CounterVec
	writerFailures *prometheus.CounterVec
	batches        prometheus.Counter
	batchSize      prometheus.Histogram
	archives       *prometheus.CounterVec
}

// newMetrics builds the collectors and registers them with reg when reg is not nil.
// Collectors already registered by an earlier Dispatcher are reused.
func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "entries_dispatched_total",
			Help:      "Entries routed by the dispatcher, by delivery path.",
		}, []string{"path"}),
		writerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "writer_failures_total",
			Help:      "Contained write failures of queued writers.",
		}, []string{"writer"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "batches_delivered_total",
			Help:      "Batches delivered by the queue worker.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "logpipe",
			Name:      "batch_size_entries",
			Help:      "Entries per delivered batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logpipe",
			Name:      "archive_runs_total",
			Help:      "Archive attempts per writer, by result.",
		}, []string{"result"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.dispatched, err = register(reg, m.dispatched)
	if err != nil {
		return nil, err
	}
	m.writerFailures, err = register(reg, m.writerFailures)
	if err != nil {
		return nil, err
	}
	m.batches, err = register(reg, m.batches)
	if err != nil {
		return nil, err
	}
	m.batchSize, err = register(reg, m.batchSize)
	if err != nil {
		return nil, err
	}
	m.archives, err = register(reg, m.archives)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmtErrorf("failed to register metric: %w", err)
	}
	return c, nil
}

func (m *Metrics) routed(path string) {
	m.dispatched.WithLabelValues(path).Inc()
}

func (m *Metrics) writerFailed(name string) {
	m.writerFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) observeBatch(size int) {
	m.batches.Inc()
	m.batchSize.Observe(float64(size))
}

func (m *Metrics) archived(ok bool) {
	if ok {
		m.archives.WithLabelValues("success").Inc()
	} else {
		m.archives.WithLabelValues("failure").Inc()
	}
}
