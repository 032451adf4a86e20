// FILE: lixenwraith/logpipe/errors.go
package logpipe

import (
	"errors"
)

// Usage and lifecycle errors.
var (
	ErrWriterTypeNotFound  = errors.New("logpipe: writer type not found")
	ErrNotInitialized      = errors.New("logpipe: writer not initialized")
	ErrWriterClosed        = errors.New("logpipe: writer closed")
	ErrNilWriter           = errors.New("logpipe: writer is nil")
	ErrInvalidArchiveRange = errors.New("logpipe: archive end precedes start")
	ErrExited              = errors.New("logpipe: dispatcher has exited")
)
