// FILE: lixenwraith/logpipe/unhandled_test.go
package logpipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportUnhandled(t *testing.T) {
	d, sys := createTestDispatcher(t)
	w := &testWriter{queued: true}
	require.NoError(t, d.AddWriter(w, nil))

	d.ReportUnhandled(errors.New("out of memory"))

	assert.True(t, d.Stats().Exited)
	assert.Equal(t, 1, w.closeCount())
	assert.Contains(t, w.messagesOf("Dispatcher"), "Unhandled error", "the entry is drained before exit")
	assert.Contains(t, sys.String(), "Unhandled error, process terminating")
	assert.Contains(t, sys.String(), "out of memory")
}

func TestReportUnhandledNil(t *testing.T) {
	d, _ := createTestDispatcher(t)
	d.ReportUnhandled(nil)
	assert.False(t, d.Stats().Exited)
}

func TestRecover(t *testing.T) {
	d, sys := createTestDispatcher(t)

	assert.PanicsWithValue(t, "worker crashed", func() {
		defer d.Recover()
		panic("worker crashed")
	})
	assert.True(t, d.Stats().Exited)
	assert.Contains(t, sys.String(), "worker crashed")
}
