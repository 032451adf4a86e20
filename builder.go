// FILE: lixenwraith/logpipe/builder.go
package logpipe

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Builder provides a fluent API for assembling a configured Dispatcher.
type Builder struct {
	cfg     *Config
	writers []WriterConfig
	opts    []Option
	err     error // Accumulate errors for deferred handling
}

// NewBuilder creates a new builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates the Dispatcher and configures the collected writers.
// On a writer failure the Dispatcher is shut down before returning.
func (b *Builder) Build() (*Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}

	d, err := New(b.cfg, b.opts...)
	if err != nil {
		return nil, err
	}

	if err := d.Configure(b.writers); err != nil {
		d.Exit(minWaitTime)
		return nil, err
	}
	return d, nil
}

// FromFile loads both the [logpipe] table and the [[writers]] tables of path.
func (b *Builder) FromFile(path string) *Builder {
	if b.err != nil {
		return b
	}
	cfg, err := NewConfigFromFile(path)
	if err != nil {
		b.err = err
		return b
	}
	writers, err := LoadWriterConfigs(path)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg = cfg
	b.writers = append(b.writers, writers...)
	return b
}

// Override applies "key=value" overrides to the configuration.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	cfg, err := ApplyOverride(b.cfg, overrides...)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg = cfg
	return b
}

// IgnoreDebugFilter lets Debug entries through when true.
func (b *Builder) IgnoreDebugFilter(ignore bool) *Builder {
	b.cfg.IgnoreDebugFilter = ignore
	return b
}

// ExitTimeout sets the default bound for each Exit phase.
func (b *Builder) ExitTimeout(d time.Duration) *Builder {
	b.cfg.ExitTimeoutMs = d.Milliseconds()
	return b
}

// QueueStartSize sets the initial batch capacity.
func (b *Builder) QueueStartSize(size int64) *Builder {
	b.cfg.QueueStartSize = size
	return b
}

// TraceDepth sets the call trace depth of the convenience producers.
func (b *Builder) TraceDepth(depth int64) *Builder {
	b.cfg.TraceDepth = depth
	return b
}

// HeartbeatIntervalS sets the statistics heartbeat interval, 0 disables it.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// PurgeOnStart controls the purge pass after configuration.
func (b *Builder) PurgeOnStart(enable bool) *Builder {
	b.cfg.PurgeOnStart = enable
	return b
}

// SystemOutput sends the system channel fallback to w.
func (b *Builder) SystemOutput(w io.Writer) *Builder {
	b.opts = append(b.opts, WithSystemOutput(w))
	return b
}

// Registry sets the writer registry.
func (b *Builder) Registry(r *Registry) *Builder {
	b.opts = append(b.opts, WithRegistry(r))
	return b
}

// Registerer registers the delivery metrics.
func (b *Builder) Registerer(reg prometheus.Registerer) *Builder {
	b.opts = append(b.opts, WithRegisterer(reg))
	return b
}

// Writer appends a writer descriptor.
func (b *Builder) Writer(wc WriterConfig) *Builder {
	if b.err != nil {
		return b
	}
	if err := validate.Struct(wc); err != nil {
		b.err = fmtErrorf("invalid writer descriptor: %w", err)
		return b
	}
	b.writers = append(b.writers, wc)
	return b
}

// Example usage:
// d, err := logpipe.NewBuilder().
//
//	Registry(reg).
//	Writer(logpipe.WriterConfig{Type: "RotatingFileWriter", UseBackgroundQueue: true}).
//	ExitTimeout(5 * time.Second).
//	Build()
//
// if err == nil {
//
//	 defer d.Exit(0)
//	 d.Info("main", "run", "Dispatcher ready")
//
// }
