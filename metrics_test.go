// FILE: lixenwraith/logpipe/metrics_test.go
package logpipe

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := New(DefaultConfig(), WithRegisterer(reg), WithSystemOutput(nil))
	require.NoError(t, err)
	defer d.Exit(0)

	direct := &testWriter{name: "direct"}
	bad := &testWriter{name: "bad", queued: true, failWith: errWriteFailed}
	arch := &archiveTestWriter{testWriter: &testWriter{name: "arch"}, archErr: errors.New("no")}
	require.NoError(t, d.AddWriter(direct, nil))
	require.NoError(t, d.AddWriter(bad, nil))
	require.NoError(t, d.AddWriter(arch, nil))

	require.NoError(t, d.Info("c", "op", "one"))
	require.True(t, d.Exit(time.Second))

	m := d.metrics
	assert.Positive(t, testutil.ToFloat64(m.dispatched.WithLabelValues(pathDirect)))
	assert.Positive(t, testutil.ToFloat64(m.dispatched.WithLabelValues(pathQueued)))
	assert.Positive(t, testutil.ToFloat64(m.writerFailures.WithLabelValues("bad")))
	assert.Positive(t, testutil.ToFloat64(m.batches))
}

func TestMetricsArchiveOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := New(DefaultConfig(), WithRegisterer(reg), WithSystemOutput(nil))
	require.NoError(t, err)
	defer d.Exit(0)

	require.NoError(t, d.AddWriter(&archiveTestWriter{testWriter: &testWriter{name: "ok"}}, nil))
	require.NoError(t, d.AddWriter(&archiveTestWriter{testWriter: &testWriter{name: "ko"}, archErr: errors.New("no")}, nil))

	_, err = d.Archive(DefaultArchiveArgs(time.Now()))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.archives.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.archives.WithLabelValues("failure")))
}

func TestMetricsSharedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	d1, err := New(DefaultConfig(), WithRegisterer(reg), WithSystemOutput(nil))
	require.NoError(t, err)
	defer d1.Exit(0)

	// A second dispatcher on the same registerer reuses the collectors
	d2, err := New(DefaultConfig(), WithRegisterer(reg), WithSystemOutput(nil))
	require.NoError(t, err)
	defer d2.Exit(0)

	assert.Same(t, d1.metrics.batchSize, d2.metrics.batchSize)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}
