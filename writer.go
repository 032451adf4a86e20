// FILE: lixenwraith/logpipe/writer.go
package logpipe

import (
	"io"
	"time"
)

// Writer consumes entries. Lifecycle: Initialize, then any number of Write and
// Purge calls, then Close.
//
// UseBackgroundQueue must report a fixed value once Initialize returns; it
// decides whether the Dispatcher calls Write on the producer's goroutine or
// from the delivery queue worker.
type Writer interface {
	Initialize(cfg *WriterConfig) error
	UseBackgroundQueue() bool
	Write(entry Entry) error
	// Purge is best-effort housekeeping. Failures are logged, not returned.
	Purge()
	// Close releases resources. A writer may log a final entry to itself first.
	Close() error
}

// SystemWriter marks a writer that receives system channel entries.
// Implementations must tolerate Write being called from inside another
// writer's Write.
type SystemWriter interface {
	Writer
	SystemWriter()
}

// StreamWriter is implemented by writers that print to a process stream.
// The system channel fallback is skipped for an entry a SystemWriter has
// already written to the same stream.
type StreamWriter interface {
	Stream() io.Writer
}

// Archiver is implemented by writers that can bundle their output.
// IsArchiveSuccess and ArchiveFailure describe the last attempt only.
type Archiver interface {
	Archive(args ArchiveArgs)
	IsArchiveSuccess() bool
	ArchiveFailure() error
}

// Host is the view of the Dispatcher given to writers.
//
// Inside Write a writer must only use WriteSystem: Write may be running under
// the dispatch lock.
type Host interface {
	Write(entry Entry) error
	WriteSystem(entry Entry)
}

// IgnoreFileSizeLimits disables the archive byte cap
const IgnoreFileSizeLimits int64 = 0

// ArchiveArgs selects the files of an archive run.
// Start and End are inclusive; a zero Start means unbounded.
type ArchiveArgs struct {
	Start               time.Time
	End                 time.Time `validate:"gtefield=Start"`
	MaxArchiveSizeBytes int64     `validate:"gte=0"`
}

// DefaultArchiveArgs covers the three days before now's date through the end of now's date, without a cap.
func DefaultArchiveArgs(now time.Time) ArchiveArgs {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return ArchiveArgs{
		Start:               today.AddDate(0, 0, -3),
		End:                 today.Add(24*time.Hour - time.Second),
		MaxArchiveSizeBytes: IgnoreFileSizeLimits,
	}
}

// WriterConfig describes one writer instance.
type WriterConfig struct {
	// Type is the registry name of the writer constructor
	Type string `toml:"type" validate:"required"`
	// Name labels the instance in diagnostics, defaults to Type
	Name string `toml:"name"`
	// Module optionally scopes Type to a registering module
	Module string `toml:"module"`
	// UseBackgroundQueue requests queued delivery
	UseBackgroundQueue bool       `toml:"use_background_queue"`
	Attributes         Attributes `toml:"attributes"`

	// Host is set by the Dispatcher before Initialize
	Host Host `toml:"-" validate:"-"`
}

// DisplayName returns Name, falling back to Type.
func (wc *WriterConfig) DisplayName() string {
	if wc.Name != "" {
		return wc.Name
	}
	return wc.Type
}

// Clone returns a deep copy of the descriptor, without the Host.
func (wc *WriterConfig) Clone() *WriterConfig {
	c := *wc
	c.Host = nil
	if wc.Attributes != nil {
		c.Attributes = make(Attributes, len(wc.Attributes))
		for k, v := range wc.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

type nopHost struct{}

func (nopHost) Write(Entry) error { return nil }
func (nopHost) WriteSystem(Entry) {}

// HostOrNop returns h, or a host that discards everything when h is nil.
func HostOrNop(h Host) Host {
	if h == nil {
		return nopHost{}
	}
	return h
}
