// FILE: lixenwraith/logpipe/constant.go
package logpipe

import (
	"time"
)

// Exit timeouts
const (
	// DefaultExitTimeout bounds each phase of Exit when the caller has no preference
	DefaultExitTimeout = 10 * time.Second
	// Timeout used when an unhandled error forces the pipeline down
	unhandledExitTimeout = 5 * time.Second
)

// Timers
const (
	// Poll period used while waiting for a batch to drain
	minWaitTime = 10 * time.Millisecond
)

// System channel annotations
const (
	noWritersPrefix       = "No Writers : "
	noSubscriberPrefix    = "There is no log writer subscribed to the log : "
	writerFailureTemplate = "Error writing message [Logger: %s, Exception: %v] : "
)
