// FILE: lixenwraith/logpipe/compat/compat_test.go
package compat

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/logpipe"
)

// captureWriter records every entry it receives
type captureWriter struct {
	mu      sync.Mutex
	entries []logpipe.Entry
	closed  bool
}

func (w *captureWriter) Initialize(*logpipe.WriterConfig) error {
	return nil
}

func (w *captureWriter) UseBackgroundQueue() bool {
	return false
}

func (w *captureWriter) Purge() {}

func (w *captureWriter) Write(e logpipe.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	return nil
}

func (w *captureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// byClass returns entries emitted by the adapter under test
func (w *captureWriter) byClass(class string) []logpipe.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []logpipe.Entry
	for _, e := range w.entries {
		if e.ClassName == class {
			out = append(out, e)
		}
	}
	return out
}

// createTestDispatcher builds a dispatcher with a single capturing direct writer
func createTestDispatcher(t *testing.T) (*logpipe.Dispatcher, *captureWriter) {
	t.Helper()
	d, err := logpipe.NewBuilder().
		IgnoreDebugFilter(true).
		SystemOutput(&bytes.Buffer{}).
		Build()
	require.NoError(t, err)

	w := &captureWriter{}
	require.NoError(t, d.AddWriter(w, nil))
	t.Cleanup(func() { d.Exit(0) })
	return d, w
}

func TestCompatBuilder(t *testing.T) {
	t.Run("with existing dispatcher", func(t *testing.T) {
		d, _ := createTestDispatcher(t)
		b := NewBuilder().WithDispatcher(d)

		got, err := b.GetDispatcher()
		require.NoError(t, err)
		assert.Same(t, d, got)

		g, err := b.BuildGnet()
		require.NoError(t, err)
		assert.NotNil(t, g)

		f, err := b.BuildFastHTTP()
		require.NoError(t, err)
		assert.NotNil(t, f)
	})

	t.Run("nil dispatcher", func(t *testing.T) {
		_, err := NewBuilder().WithDispatcher(nil).BuildGnet()
		assert.Error(t, err)
	})

	t.Run("from builder", func(t *testing.T) {
		b := NewBuilder().WithBuilder(logpipe.NewBuilder().SystemOutput(&bytes.Buffer{}))
		d1, err := b.GetDispatcher()
		require.NoError(t, err)
		t.Cleanup(func() { d1.Exit(0) })

		d2, err := b.GetDispatcher()
		require.NoError(t, err)
		assert.Same(t, d1, d2, "dispatcher should be cached")
	})
}

func TestGnetAdapter(t *testing.T) {
	d, w := createTestDispatcher(t)

	var fatalMsg string
	adapter := NewGnetAdapter(d, WithFatalHandler(func(msg string) {
		fatalMsg = msg
	}))

	adapter.Debugf("gnet debug id=%d", 1)
	adapter.Infof("gnet info id=%d", 2)
	adapter.Warnf("gnet warn id=%d", 3)
	adapter.Errorf("gnet error id=%d", 4)
	adapter.Fatalf("gnet fatal id=%d", 5)

	entries := w.byClass(GnetClassName)
	require.Len(t, entries, 5)

	want := []struct {
		sev logpipe.Severity
		msg string
	}{
		{logpipe.SeverityDebug, "gnet debug id=1"},
		{logpipe.SeverityInformation, "gnet info id=2"},
		{logpipe.SeverityWarning, "gnet warn id=3"},
		{logpipe.SeverityError, "gnet error id=4"},
		{logpipe.SeverityError, "gnet fatal id=5"},
	}
	for i, e := range entries {
		assert.Equal(t, want[i].sev, e.Severity())
		assert.Equal(t, want[i].msg, e.Message)
	}
	assert.Equal(t, []any{"fatal", true}, entries[4].Fields)

	assert.Equal(t, "gnet fatal id=5", fatalMsg)
	assert.True(t, w.closed, "fatal should shut the dispatcher down")
}

func TestStructuredGnetAdapter(t *testing.T) {
	d, w := createTestDispatcher(t)
	adapter, err := NewBuilder().WithDispatcher(d).BuildStructuredGnet(WithFatalHandler(func(string) {}))
	require.NoError(t, err)

	adapter.Infof("client connected: id=%d, addr=%s", 42, "127.0.0.1")
	adapter.Infof("plain %s message", "printf")

	entries := w.byClass(GnetClassName)
	require.Len(t, entries, 2)

	assert.Equal(t, "client connected", entries[0].Message)
	assert.Equal(t, []any{"id", 42, "addr", "127.0.0.1"}, entries[0].Fields)

	assert.Equal(t, "plain printf message", entries[1].Message)
	assert.Empty(t, entries[1].Fields)
}

func TestParseFormat(t *testing.T) {
	msg, fields, ok := parseFormat("took %d%% of cpu=%v", []any{5, 0.5})
	assert.False(t, ok, "a verb outside a key fragment disables extraction")
	assert.Empty(t, msg)
	assert.Nil(t, fields)

	msg, fields, ok = parseFormat("listener ready port=%d", []any{9000})
	require.True(t, ok)
	assert.Equal(t, "listener ready", msg)
	assert.Equal(t, []any{"port", 9000}, fields)
}

func TestFastHTTPAdapter(t *testing.T) {
	d, w := createTestDispatcher(t)
	adapter := NewFastHTTPAdapter(d)

	testMessages := []string{
		"this is some informational message",
		"a debug message for the developers",
		"warning: something might be wrong",
		"an error occurred while processing",
	}
	for _, msg := range testMessages {
		adapter.Printf("%s", msg)
	}

	entries := w.byClass(FastHTTPClassName)
	require.Len(t, entries, 4)

	expected := []logpipe.Severity{
		logpipe.SeverityInformation,
		logpipe.SeverityDebug,
		logpipe.SeverityWarning,
		logpipe.SeverityError,
	}
	for i, e := range entries {
		assert.Equal(t, expected[i], e.Severity(), "message %q", testMessages[i])
		assert.Equal(t, testMessages[i], e.Message)
	}
}

func TestFastHTTPAdapterOptions(t *testing.T) {
	d, w := createTestDispatcher(t)
	adapter := NewFastHTTPAdapter(d,
		WithDefaultLevel(logpipe.SeverityWarning),
		WithLevelDetector(func(string) (logpipe.Severity, bool) { return 0, false }),
	)

	adapter.Printf("request failed")

	entries := w.byClass(FastHTTPClassName)
	require.Len(t, entries, 1)
	assert.Equal(t, logpipe.SeverityWarning, entries[0].Severity())
}

func TestDetectLogLevel(t *testing.T) {
	tests := []struct {
		msg  string
		want logpipe.Severity
		ok   bool
	}{
		{"connection failed", logpipe.SeverityError, true},
		{"PANIC recovered", logpipe.SeverityError, true},
		{"deprecated header", logpipe.SeverityWarning, true},
		{"debug dump", logpipe.SeverityDebug, true},
		{"trace id", logpipe.SeverityTrace, true},
		{"served request", 0, false},
	}
	for _, tt := range tests {
		got, ok := DetectLogLevel(tt.msg)
		assert.Equal(t, tt.ok, ok, tt.msg)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.msg)
		}
	}
}
