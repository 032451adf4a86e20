// FILE: lixenwraith/logpipe/writer/console/debug.go
package console

import (
	"io"
	"os"
	"sync"

	"github.com/lixenwraith/logpipe"
)

// Registry names of the debug stream writers
const (
	DebugTypeName       = "DebugWriter"
	SystemDebugTypeName = "SystemDebugWriter"
)

const debugPrefix = "[DebugWriter] "

// DebugWriter writes the classic single-line entry form to a debug stream, stderr by default.
type DebugWriter struct {
	mu       sync.Mutex
	name     string
	out      io.Writer
	useQueue bool
	ready    bool
}

// NewDebug returns a debug writer; out overrides stderr when not nil.
func NewDebug(out io.Writer) *DebugWriter {
	return &DebugWriter{out: out}
}

// DebugFactory is the registry constructor
func DebugFactory() logpipe.Writer {
	return NewDebug(nil)
}

// Name returns the configured instance name
func (w *DebugWriter) Name() string {
	if w.name == "" {
		return DebugTypeName
	}
	return w.name
}

func (w *DebugWriter) Initialize(cfg *logpipe.WriterConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.name = cfg.DisplayName()
	w.useQueue = cfg.UseBackgroundQueue
	if w.out == nil {
		w.out = os.Stderr
	}
	w.ready = true
	return nil
}

func (w *DebugWriter) UseBackgroundQueue() bool {
	return w.useQueue
}

func (w *DebugWriter) Write(e logpipe.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ready {
		return logpipe.ErrNotInitialized
	}
	_, err := io.WriteString(w.out, debugPrefix+e.String()+"\n")
	return err
}

// Stream returns the stream entries are written to
func (w *DebugWriter) Stream() io.Writer {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out
}

func (w *DebugWriter) Purge() {}

func (w *DebugWriter) Close() error {
	return nil
}

// SystemDebugWriter is a DebugWriter that also receives system channel
// entries. It is always a direct writer.
type SystemDebugWriter struct {
	*DebugWriter
}

// NewSystemDebug returns a system debug writer; out overrides stderr when not nil.
func NewSystemDebug(out io.Writer) *SystemDebugWriter {
	return &SystemDebugWriter{DebugWriter: NewDebug(out)}
}

// SystemDebugFactory is the registry constructor
func SystemDebugFactory() logpipe.Writer {
	return NewSystemDebug(nil)
}

func (w *SystemDebugWriter) Name() string {
	if w.name == "" {
		return SystemDebugTypeName
	}
	return w.name
}

func (w *SystemDebugWriter) UseBackgroundQueue() bool {
	return false
}

// SystemWriter marks the capability
func (w *SystemDebugWriter) SystemWriter() {}
