// FILE: lixenwraith/logpipe/helpers_test.go
package logpipe

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testWriter is a configurable in-memory writer
type testWriter struct {
	name   string
	queued bool
	system bool

	mu       sync.Mutex
	entries  []Entry
	failWith error
	panicMsg string
	block    chan struct{} // Write waits on it when not nil
	inWrite  chan struct{} // signaled once per Write when not nil
	closed   int
	purged   int
	inits    int
	host     Host
}

func (w *testWriter) Name() string { return w.name }

func (w *testWriter) Initialize(cfg *WriterConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inits++
	w.host = cfg.Host
	return nil
}

func (w *testWriter) UseBackgroundQueue() bool { return w.queued }

func (w *testWriter) Write(e Entry) error {
	if w.inWrite != nil {
		select {
		case w.inWrite <- struct{}{}:
		default:
		}
	}
	if w.block != nil {
		<-w.block
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.panicMsg != "" {
		panic(w.panicMsg)
	}
	if w.failWith != nil {
		return w.failWith
	}
	w.entries = append(w.entries, e)
	return nil
}

func (w *testWriter) Purge() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purged++
}

func (w *testWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed++
	return nil
}

// messages returns the messages written so far
func (w *testWriter) messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, e.Message)
	}
	return out
}

// messagesOf returns the messages written by class
func (w *testWriter) messagesOf(class string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, e := range w.entries {
		if e.ClassName == class {
			out = append(out, e.Message)
		}
	}
	return out
}

func (w *testWriter) closeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// systemTestWriter adds the system channel capability
type systemTestWriter struct {
	*testWriter
}

func (w *systemTestWriter) SystemWriter() {}

// archiveTestWriter adds the archive capability
type archiveTestWriter struct {
	*testWriter
	archiveMu sync.Mutex
	calls     []ArchiveArgs
	archErr   error
	archPanic bool
}

func (w *archiveTestWriter) Archive(args ArchiveArgs) {
	w.archiveMu.Lock()
	defer w.archiveMu.Unlock()
	w.calls = append(w.calls, args)
	if w.archPanic {
		panic("archive exploded")
	}
}

func (w *archiveTestWriter) IsArchiveSuccess() bool {
	w.archiveMu.Lock()
	defer w.archiveMu.Unlock()
	return w.archErr == nil
}

func (w *archiveTestWriter) ArchiveFailure() error {
	w.archiveMu.Lock()
	defer w.archiveMu.Unlock()
	return w.archErr
}

// syncBuffer is a goroutine-safe bytes.Buffer
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var errWriteFailed = errors.New("write failed")

// createTestDispatcher creates a dispatcher whose system fallback is captured
func createTestDispatcher(t *testing.T, mutate ...func(*Config)) (*Dispatcher, *syncBuffer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ExitTimeoutMs = 1000
	for _, m := range mutate {
		m(cfg)
	}

	sys := &syncBuffer{}
	d, err := New(cfg, WithSystemOutput(sys))
	require.NoError(t, err)
	t.Cleanup(func() { d.Exit(100 * time.Millisecond) })
	return d, sys
}

// eventually waits for cond, failing the test after a second
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond, msg)
}
