// FILE: lixenwraith/logpipe/writer/file/helpers_test.go
package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/logpipe"
)

// recordingHost collects what a writer reports to its host
type recordingHost struct {
	mu      sync.Mutex
	entries []logpipe.Entry
	system  []logpipe.Entry
}

func (h *recordingHost) Write(e logpipe.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

func (h *recordingHost) WriteSystem(e logpipe.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.system = append(h.system, e)
}

func (h *recordingHost) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e.Message)
	}
	return out
}

// writeLogFile creates a log file named for t with size bytes
func writeLogFile(t *testing.T, dir string, n Naming, at time.Time, size int) string {
	t.Helper()
	path := filepath.Join(dir, n.FileName(at, 0))
	data := make([]byte, size)
	for i := range data {
		data[i] = 'a'
	}
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// listNames returns the regular file names of dir
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names
}

// day returns local noon of the given date
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}
