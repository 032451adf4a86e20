// FILE: lixenwraith/logpipe/writer/file/writer.go
// Package file provides the rotating file writer together with its archive
// and purge services.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/formatter"
)

// TypeName is the registry name of the rotating file writer
const TypeName = "RotatingFileWriter"

// Attribute keys read by Initialize
const (
	AttrDirectory          = "directory"
	AttrFileName           = "file_name"
	AttrFormat             = "format"
	AttrMaxFileSize        = "max_file_size_bytes"
	AttrMaxStorageSize     = "max_storage_size_bytes"
	AttrMaxDaysToKeep      = "max_days_to_keep"
	AttrArchivePattern     = "archive_search_pattern"
	AttrArchiveCompression = "archive_compression"
	AttrMinDiskFree        = "min_disk_free_bytes"
)

// Defaults for absent attributes
const (
	DefaultDirectory   = "./logs"
	DefaultMaxFileSize = 10 * 1024 * 1024
)

// RolloverReason says why a new file was started
type RolloverReason int

const (
	ReasonNone RolloverReason = iota
	ReasonFileSizeExceeded
	ReasonDayRollover
)

func (r RolloverReason) String() string {
	switch r {
	case ReasonFileSizeExceeded:
		return "FileSizeExceeded"
	case ReasonDayRollover:
		return "DayRollover"
	default:
		return "None"
	}
}

// Stats reports the writer's lifetime counters
type Stats struct {
	CurrentFile   string
	CurrentSize   int64
	Rollovers     uint64
	PurgeRequests uint64
	FilesPurged   uint64
}

// Writer appends entries to one open file and starts a new file when the
// current one grows past the size limit or the date changes.
type Writer struct {
	mu          sync.Mutex
	name        string
	host        logpipe.Host
	useQueue    bool
	initialized bool
	closed      bool

	dir         string
	naming      Naming
	maxFileSize int64
	minDiskFree int64
	formatter   *formatter.Formatter

	file      *os.File
	size      int64
	lastWrite time.Time
	current   atomic.Pointer[string]

	purger  *PurgePolicy
	archive *ArchiveService

	purgeMu     sync.Mutex
	purgeClosed bool
	purgeWG     sync.WaitGroup

	rollovers     atomic.Uint64
	purgeRequests atomic.Uint64

	now func() time.Time
}

// New returns an uninitialized writer
func New() *Writer {
	return &Writer{now: time.Now}
}

// Factory is the registry constructor
func Factory() logpipe.Writer {
	return New()
}

// Name returns the configured instance name
func (w *Writer) Name() string {
	if w.name == "" {
		return TypeName
	}
	return w.name
}

// Initialize reads the attributes, prepares the directory and opens the first file.
func (w *Writer) Initialize(cfg *logpipe.WriterConfig) error {
	if err := w.initialize(cfg); err != nil {
		return err
	}
	for _, line := range w.purger.Describe() {
		_ = w.host.Write(logpipe.NewEntry(logpipe.SeveritySystemInfo, TypeName, "Initialize", line, nil))
	}
	return nil
}

func (w *Writer) initialize(cfg *logpipe.WriterConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		return fmt.Errorf("writer '%s' already initialized", w.Name())
	}

	attrs := cfg.Attributes
	w.name = cfg.DisplayName()
	w.host = logpipe.HostOrNop(cfg.Host)
	w.useQueue = cfg.UseBackgroundQueue

	w.dir = attrs.String(AttrDirectory, DefaultDirectory)
	w.naming = NewNaming(attrs.String(AttrFileName, defaultFileName()))

	var err error
	if w.maxFileSize, err = attrs.NonNegativeInt64(AttrMaxFileSize, DefaultMaxFileSize); err != nil {
		return err
	}
	if w.minDiskFree, err = attrs.NonNegativeInt64(AttrMinDiskFree, 0); err != nil {
		return err
	}
	maxDays, err := attrs.NonNegativeInt64(AttrMaxDaysToKeep, Unlimited)
	if err != nil {
		return err
	}
	maxBytes, err := attrs.NonNegativeInt64(AttrMaxStorageSize, Unlimited)
	if err != nil {
		return err
	}

	format := attrs.String(AttrFormat, "txt")
	if format != "txt" && format != "json" {
		return fmt.Errorf("invalid format '%s' (use txt or json)", format)
	}
	w.formatter = formatter.New().Type(format)

	w.archive, err = NewArchiveService(w.dir, w.naming,
		attrs.String(AttrArchivePattern, DefaultPattern),
		attrs.String(AttrArchiveCompression, CompressionFlate))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		err = fmt.Errorf("failed to create log directory '%s': %w", w.dir, err)
		w.host.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemError, TypeName, "Initialize", "Cannot create log directory", err))
		return err
	}

	w.purger = NewPurgePolicy(w.dir, w.naming, maxDays, maxBytes, w.host)

	if err := w.openLocked(w.now()); err != nil {
		return err
	}
	w.initialized = true
	return nil
}

// UseBackgroundQueue reports the delivery mode fixed at Initialize
func (w *Writer) UseBackgroundQueue() bool {
	return w.useQueue
}

// Write appends e, first starting a new file when a rollover is due.
func (w *Writer) Write(e logpipe.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return logpipe.ErrNotInitialized
	}
	if w.closed {
		return logpipe.ErrWriterClosed
	}

	now := w.now()
	if reason := w.rolloverReason(now); reason != ReasonNone {
		if err := w.rollover(now, reason); err != nil {
			return err
		}
	}
	return w.writeLocked(e, now)
}

// rolloverReason checks the size trigger, then the day trigger
func (w *Writer) rolloverReason(now time.Time) RolloverReason {
	if w.maxFileSize > 0 && w.size > w.maxFileSize {
		return ReasonFileSizeExceeded
	}
	if !sameDay(w.lastWrite, now) {
		return ReasonDayRollover
	}
	return ReasonNone
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// rollover closes the current file, opens the next one and schedules a purge.
func (w *Writer) rollover(now time.Time, reason RolloverReason) error {
	previous := filepath.Base(w.currentPath())
	if err := w.closeFileLocked(); err != nil {
		w.host.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemWarning, TypeName, "Rollover", "Failed to close log file "+previous, err))
	}

	if err := w.openLocked(now); err != nil {
		return err
	}
	w.rollovers.Add(1)

	_ = w.writeSelf(logpipe.SeverityTrace, "Rollover", "New log file reason: "+reason.String(), "previous", previous)
	w.checkDiskFree()
	w.Purge()
	return nil
}

// openLocked creates the next file for now, locks it and writes the version entry.
func (w *Writer) openLocked(now time.Time) error {
	name, err := w.naming.NextFileName(w.dir, now)
	if err == nil {
		path := filepath.Join(w.dir, name)
		var f *os.File
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			if lerr := lockFile(f); lerr != nil {
				w.host.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemWarning, TypeName, "Open", "Cannot lock log file "+name, lerr))
			}
			w.file = f
			w.size = 0
			w.lastWrite = now
			w.current.Store(&path)
			return w.writeSelf(logpipe.SeverityTrace, "Open", versionInfo())
		}
	}

	err = fmt.Errorf("failed to open log file in '%s': %w", w.dir, err)
	w.host.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemError, TypeName, "Open", "Cannot open log file", err))
	return err
}

func (w *Writer) closeFileLocked() error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	_ = unlockFile(f)
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file '%s': %w", f.Name(), err)
	}
	return f.Close()
}

// writeSelf writes an entry originating from the writer itself
func (w *Writer) writeSelf(severity logpipe.Severity, operation, message string, fields ...any) error {
	now := w.now()
	e := logpipe.NewEntry(severity, TypeName, operation, message, nil, fields...)
	e.Timestamp = now
	return w.writeLocked(e, now)
}

func (w *Writer) writeLocked(e logpipe.Entry, now time.Time) error {
	if w.file == nil {
		return logpipe.ErrWriterClosed
	}
	n, err := w.file.Write(w.formatter.Format(e.Record()))
	w.size += int64(n)
	if err != nil {
		err = fmt.Errorf("failed to write to log file '%s': %w", w.file.Name(), err)
		w.host.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemError, TypeName, "Write", "Write to log file failed", err))
		return err
	}
	w.lastWrite = now
	return nil
}

// checkDiskFree warns on the system channel when free space is below the configured floor
func (w *Writer) checkDiskFree() {
	if w.minDiskFree <= 0 {
		return
	}
	free, err := diskFree(w.dir)
	if err != nil {
		return
	}
	if free < uint64(w.minDiskFree) {
		w.host.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemWarning, TypeName, "Rollover",
			fmt.Sprintf("Low disk space in '%s': %d bytes free, %d required", w.dir, free, w.minDiskFree), nil))
	}
}

func (w *Writer) currentPath() string {
	if p := w.current.Load(); p != nil {
		return *p
	}
	return ""
}

// CurrentFile returns the path of the file being written
func (w *Writer) CurrentFile() string {
	return w.currentPath()
}

// Purge starts a purge pass on its own goroutine and returns immediately.
func (w *Writer) Purge() {
	w.purgeRequests.Add(1)
	if w.purger == nil || !w.purger.Enabled() {
		return
	}

	w.purgeMu.Lock()
	if w.purgeClosed {
		w.purgeMu.Unlock()
		return
	}
	w.purgeWG.Add(1)
	w.purgeMu.Unlock()

	active := w.currentPath()
	go func() {
		defer w.purgeWG.Done()
		w.purger.Run(active)
	}()
}

// WaitPurge blocks until every started purge pass has finished
func (w *Writer) WaitPurge() {
	w.purgeWG.Wait()
}

// Close writes a final entry, closes the file and waits for running purges.
// Writes after Close fail with logpipe.ErrWriterClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.initialized || w.closed {
		w.mu.Unlock()
		return nil
	}
	_ = w.writeSelf(logpipe.SeverityTrace, "Close", "Dispose log writer: "+w.Name())
	err := w.closeFileLocked()
	w.closed = true
	w.mu.Unlock()

	w.purgeMu.Lock()
	w.purgeClosed = true
	w.purgeMu.Unlock()
	w.purgeWG.Wait()
	return err
}

// Archive bundles this writer's files for args. The active file is skipped.
func (w *Writer) Archive(args logpipe.ArchiveArgs) {
	if w.archive == nil {
		return
	}
	w.archive.Archive(args)
}

// IsArchiveSuccess reports the outcome of the last Archive call
func (w *Writer) IsArchiveSuccess() bool {
	if w.archive == nil {
		return false
	}
	return w.archive.IsArchiveSuccess()
}

// ArchiveFailure returns the reason the last Archive call failed
func (w *Writer) ArchiveFailure() error {
	if w.archive == nil {
		return logpipe.ErrNotInitialized
	}
	return w.archive.ArchiveFailure()
}

// Stats returns the writer's counters
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	size := w.size
	w.mu.Unlock()

	var purged uint64
	if w.purger != nil {
		purged = w.purger.Deleted()
	}
	return Stats{
		CurrentFile:   w.currentPath(),
		CurrentSize:   size,
		Rollovers:     w.rollovers.Load(),
		PurgeRequests: w.purgeRequests.Load(),
		FilesPurged:   purged,
	}
}

func defaultFileName() string {
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name)) + LogExtension
}
