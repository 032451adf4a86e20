// FILE: lixenwraith/logpipe/dispatcher.go
package logpipe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/logpipe/formatter"
)

// Dispatcher routes entries to writers. It owns the direct writer list and
// the delivery queue; construct it with New and tear it down with Exit.
type Dispatcher struct {
	cfg      *Config
	registry *Registry
	state    State
	metrics  *Metrics
	queue    *queue

	mu     sync.Mutex // dispatch lock, held across direct writes
	regMu  sync.Mutex // serializes changes to direct
	direct atomic.Pointer[[]Writer]

	sysMu        sync.Mutex
	sysOut       io.Writer
	sysFormatter *formatter.Formatter

	heartbeatStop chan struct{}
	heartbeatDone chan struct{}

	exitOnce sync.Once
	exitAck  bool
}

// Option customizes a Dispatcher at construction
type Option func(*options)

type options struct {
	registry   *Registry
	sysOut     io.Writer
	sysOutSet  bool
	registerer prometheus.Registerer
}

// WithRegistry sets the registry used by Configure.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithSystemOutput sends the system channel fallback to w instead of the configured stream.
// A nil w disables the fallback.
func WithSystemOutput(w io.Writer) Option {
	return func(o *options) {
		o.sysOut = w
		o.sysOutSet = true
	}
}

// WithRegisterer registers the delivery metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New validates cfg, starts the delivery queue worker and returns the Dispatcher.
// A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	metrics, err := newMetrics(o.registerer)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		cfg:          cfg.Clone(),
		registry:     o.registry,
		metrics:      metrics,
		sysFormatter: formatter.New().Type(cfg.SystemFormat),
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}

	if o.sysOutSet {
		d.sysOut = o.sysOut
	} else {
		switch cfg.SystemOutput {
		case "stdout":
			d.sysOut = os.Stdout
		case "stderr":
			d.sysOut = os.Stderr
		}
	}

	empty := []Writer{}
	d.direct.Store(&empty)
	d.state.StartTime.Store(time.Now())
	d.queue = newQueue(int(cfg.QueueStartSize), d.WriteSystem, &d.state, metrics)
	d.state.Started.Store(true)

	if cfg.HeartbeatIntervalS > 0 {
		d.startHeartbeat(time.Duration(cfg.HeartbeatIntervalS) * time.Second)
	}

	return d, nil
}

// Config returns a copy of the dispatcher configuration
func (d *Dispatcher) Config() *Config {
	return d.cfg.Clone()
}

// Registry returns the registry used by Configure
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Configure instantiates, initializes and adds a writer for each descriptor,
// in order. The first failure stops configuration and is returned.
func (d *Dispatcher) Configure(descs []WriterConfig) error {
	for i := range descs {
		desc := descs[i].Clone()
		w, err := d.registry.New(desc)
		if err != nil {
			return err
		}
		if err := d.AddWriter(w, desc); err != nil {
			return err
		}
	}

	_ = d.Trace("Dispatcher", "Configure", "Logging initialized")

	if d.cfg.PurgeOnStart {
		d.Purge()
	}
	return nil
}

// AddWriter initializes w with wc and registers it for direct or queued
// delivery according to w.UseBackgroundQueue. A nil wc is treated as an
// empty descriptor.
func (d *Dispatcher) AddWriter(w Writer, wc *WriterConfig) error {
	if w == nil {
		return ErrNilWriter
	}
	if d.state.Exited.Load() {
		return ErrExited
	}

	if wc == nil {
		wc = &WriterConfig{Type: fmt.Sprintf("%T", w)}
	} else {
		wc = wc.Clone()
	}
	wc.Host = d

	if err := w.Initialize(wc); err != nil {
		return fmtErrorf("failed to initialize writer '%s': %w", wc.DisplayName(), err)
	}

	mode := "not queued"
	if w.UseBackgroundQueue() {
		if !d.queue.Register(w) {
			return fmtErrorf("writer '%s' already registered", wc.DisplayName())
		}
		mode = "queued"
	} else {
		d.regMu.Lock()
		cur := *d.direct.Load()
		if slices.Contains(cur, w) {
			d.regMu.Unlock()
			return fmtErrorf("writer '%s' already registered", wc.DisplayName())
		}
		next := append(slices.Clone(cur), w)
		d.direct.Store(&next)
		d.regMu.Unlock()
	}

	_ = d.Trace("Dispatcher", "AddWriter", fmt.Sprintf("LogWriter '%s' (%s) added", wc.DisplayName(), mode))
	return nil
}

// RemoveWriter unregisters w from whichever set holds it. w is not closed.
func (d *Dispatcher) RemoveWriter(w Writer) bool {
	if d.queue.Unregister(w) {
		return true
	}

	d.regMu.Lock()
	defer d.regMu.Unlock()
	cur := *d.direct.Load()
	i := slices.Index(cur, w)
	if i < 0 {
		return false
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	d.direct.Store(&next)
	return true
}

// directWriters returns the current direct writer snapshot
func (d *Dispatcher) directWriters() []Writer {
	return *d.direct.Load()
}

// Writers returns all registered writers, direct ones first.
func (d *Dispatcher) Writers() []Writer {
	return append(slices.Clone(d.directWriters()), d.queue.Writers()...)
}

// Write routes e. Debug entries are dropped unless the debug filter is
// ignored. An error is returned only when a direct writer fails.
func (d *Dispatcher) Write(e Entry) error {
	if e.Severity() == SeverityDebug && !d.cfg.IgnoreDebugFilter {
		d.state.EntriesFiltered.Add(1)
		return nil
	}
	d.state.EntriesDispatched.Add(1)

	delivered := false
	if d.queue.WriterCount() > 0 {
		if d.queue.Enqueue(e) {
			delivered = true
			d.metrics.routed(pathQueued)
		} else {
			d.state.EntriesRejected.Add(1)
		}
	}

	if len(d.directWriters()) > 0 {
		wrote, err := d.writeDirect(e)
		if err != nil {
			return err
		}
		delivered = delivered || wrote
	}

	if !delivered {
		d.WriteSystem(e.Relabel(noWritersPrefix))
	}
	return nil
}

// writeDirect calls every direct writer under the dispatch lock and reports
// whether any writer was registered once the lock was held. Panics propagate.
func (d *Dispatcher) writeDirect(e Entry) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	writers := d.directWriters()
	for _, w := range writers {
		if err := w.Write(e); err != nil {
			return true, fmtErrorf("writer '%s' failed: %w", writerName(w), err)
		}
		d.state.DirectWrites.Add(1)
		d.metrics.routed(pathDirect)
	}
	return len(writers) > 0, nil
}

// WriteSystem delivers e to direct writers with the SystemWriter capability
// and to the fallback output, unless one of them already printed e there.
func (d *Dispatcher) WriteSystem(e Entry) {
	d.state.SystemEntries.Add(1)
	d.metrics.routed(pathSystem)

	covered := false
	for _, w := range d.directWriters() {
		sw, ok := w.(SystemWriter)
		if !ok {
			continue
		}
		if err := safeWrite(sw, e); err != nil {
			d.fallback(e.Relabel(fmt.Sprintf(writerFailureTemplate, writerName(sw), err)))
			continue
		}
		if st, ok := sw.(StreamWriter); ok && d.isSystemOutput(st.Stream()) {
			covered = true
		}
	}
	if !covered {
		d.fallback(e)
	}
}

// isSystemOutput reports whether out is the fallback output
func (d *Dispatcher) isSystemOutput(out io.Writer) bool {
	if d.sysOut == nil || out == nil {
		return false
	}
	a, b := reflect.ValueOf(d.sysOut), reflect.ValueOf(out)
	if a.Type() != b.Type() || !a.Type().Comparable() {
		return false
	}
	return d.sysOut == out
}

// fallback renders e to the system output, if any
func (d *Dispatcher) fallback(e Entry) {
	d.sysMu.Lock()
	defer d.sysMu.Unlock()
	if d.sysOut == nil {
		return
	}
	_, _ = d.sysOut.Write(d.sysFormatter.Format(e.Record()))
}

// ArchiveReport is the outcome of one writer's archive attempt
type ArchiveReport struct {
	Writer  string `json:"writer"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Archive asks every Archiver writer, direct and queued, to archive the
// range in args. Failures are reported and do not stop the fan-out.
func (d *Dispatcher) Archive(args ArchiveArgs) ([]ArchiveReport, error) {
	if err := ValidateArchiveArgs(args); err != nil {
		return nil, err
	}

	var reports []ArchiveReport
	for _, w := range d.Writers() {
		a, ok := w.(Archiver)
		if !ok {
			continue
		}

		name := writerName(w)
		err := safeArchive(a, args)
		if err == nil && !a.IsArchiveSuccess() {
			err = a.ArchiveFailure()
			if err == nil {
				err = errors.New("archive reported failure without a reason")
			}
		}

		report := ArchiveReport{Writer: name, Success: err == nil}
		d.metrics.archived(err == nil)
		if err != nil {
			report.Error = err.Error()
			msg := fmt.Sprintf("Archive failed for writer '%s'", name)
			d.WriteSystem(NewEntry(SeveritySystemError, "Dispatcher", "Archive", msg, err))
			_ = d.Write(NewEntry(SeverityError, "Dispatcher", "Archive", msg, err))
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func safeArchive(a Archiver, args ArchiveArgs) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	a.Archive(args)
	return nil
}

// Purge runs housekeeping on every registered writer.
func (d *Dispatcher) Purge() {
	for _, w := range d.Writers() {
		if err := safePurge(w); err != nil {
			d.WriteSystem(NewEntry(SeveritySystemError, "Dispatcher", "Purge",
				fmt.Sprintf("Purge failed for writer '%s'", writerName(w)), err))
		}
	}
}

func safePurge(w Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	w.Purge()
	return nil
}

// Exit drains and stops the delivery queue, then closes every writer.
// timeout bounds the drain, the acknowledgment wait and the close wait
// separately; zero uses the configured exit timeout. Subsequent calls return
// the first result.
func (d *Dispatcher) Exit(timeout time.Duration) bool {
	d.exitOnce.Do(func() {
		if timeout <= 0 {
			timeout = d.cfg.ExitTimeout()
		}
		_ = d.Trace("Dispatcher", "Exit", "Delivery queue exit requested")
		d.stopHeartbeat()

		d.exitAck = d.queue.Exit(timeout)

		d.mu.Lock()
		d.regMu.Lock()
		direct := *d.direct.Load()
		empty := []Writer{}
		d.direct.Store(&empty)
		d.regMu.Unlock()
		d.mu.Unlock()

		closeWriters(direct, timeout, "Dispatcher", d.WriteSystem)
		d.state.Exited.Store(true)
	})
	return d.exitAck
}

// Stats returns a snapshot of the delivery counters
func (d *Dispatcher) Stats() Stats {
	s := d.state.snapshot()
	s.DirectWriters = len(d.directWriters())
	s.QueuedWriters = d.queue.WriterCount()
	s.PendingEntries = d.queue.Pending()
	return s
}
