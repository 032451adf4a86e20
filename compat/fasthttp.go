// FILE: lixenwraith/logpipe/compat/fasthttp.go
package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/logpipe"
)

// FastHTTPClassName is the class name stamped on entries emitted by fasthttp
const FastHTTPClassName = "fasthttp"

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter wraps a logpipe.Dispatcher to implement fasthttp Logger interface
type FastHTTPAdapter struct {
	d             *logpipe.Dispatcher
	defaultLevel  logpipe.Severity
	levelDetector func(string) (logpipe.Severity, bool)
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(d *logpipe.Dispatcher, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		d:             d,
		defaultLevel:  logpipe.SeverityInformation,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the severity used when detection finds nothing
func WithDefaultLevel(level logpipe.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect severity from message content
func WithLevelDetector(detector func(string) (logpipe.Severity, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected, ok := a.levelDetector(msg); ok {
			level = detected
		}
	}

	switch level {
	case logpipe.SeverityDebug:
		_ = a.d.Debug(FastHTTPClassName, "Printf", msg)
	case logpipe.SeverityTrace:
		_ = a.d.Trace(FastHTTPClassName, "Printf", msg)
	case logpipe.SeverityWarning:
		_ = a.d.Warning(FastHTTPClassName, "Printf", msg)
	case logpipe.SeverityError:
		_ = a.d.Error(FastHTTPClassName, "Printf", msg, nil)
	default:
		_ = a.d.Info(FastHTTPClassName, "Printf", msg)
	}
}

// DetectLogLevel attempts to detect severity from message content
func DetectLogLevel(msg string) (logpipe.Severity, bool) {
	msgLower := strings.ToLower(msg)

	switch {
	case strings.Contains(msgLower, "error"),
		strings.Contains(msgLower, "failed"),
		strings.Contains(msgLower, "fatal"),
		strings.Contains(msgLower, "panic"):
		return logpipe.SeverityError, true
	case strings.Contains(msgLower, "warn"),
		strings.Contains(msgLower, "deprecated"):
		return logpipe.SeverityWarning, true
	case strings.Contains(msgLower, "debug"):
		return logpipe.SeverityDebug, true
	case strings.Contains(msgLower, "trace"):
		return logpipe.SeverityTrace, true
	}
	return 0, false
}
