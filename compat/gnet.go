// FILE: lixenwraith/logpipe/compat/gnet.go
package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/logpipe"
)

// GnetClassName is the class name stamped on entries emitted by gnet
const GnetClassName = "gnet"

// fatalExitTimeout bounds the queue drain before the fatal handler runs
const fatalExitTimeout = 100 * time.Millisecond

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter wraps a logpipe.Dispatcher to implement gnet logging.Logger interface
type GnetAdapter struct {
	d             *logpipe.Dispatcher
	fatalHandler  func(msg string)
	extractFields bool
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(d *logpipe.Dispatcher, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		d: d,
		fatalHandler: func(msg string) {
			os.Exit(1) // matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithFieldExtraction turns "key=%v" fragments of gnet format strings into entry fields
func WithFieldExtraction(enable bool) GnetOption {
	return func(a *GnetAdapter) {
		a.extractFields = enable
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	msg, fields := a.render(format, args)
	_ = a.d.Debug(GnetClassName, "Debugf", msg, fields...)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	msg, fields := a.render(format, args)
	_ = a.d.Info(GnetClassName, "Infof", msg, fields...)
}

// Warnf logs at warning level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	msg, fields := a.render(format, args)
	_ = a.d.Warning(GnetClassName, "Warnf", msg, fields...)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	msg, fields := a.render(format, args)
	_ = a.d.Error(GnetClassName, "Errorf", msg, nil, fields...)
}

// Fatalf logs at error level, shuts the dispatcher down and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg, fields := a.render(format, args)
	_ = a.d.Error(GnetClassName, "Fatalf", msg, nil, append(fields, "fatal", true)...)

	a.d.Exit(fatalExitTimeout)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

func (a *GnetAdapter) render(format string, args []any) (string, []any) {
	if a.extractFields {
		if msg, fields, ok := parseFormat(format, args); ok {
			return msg, fields
		}
	}
	return fmt.Sprintf(format, args...), nil
}
