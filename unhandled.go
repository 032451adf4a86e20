// FILE: lixenwraith/logpipe/unhandled.go
package logpipe

import (
	"fmt"
)

// ReportUnhandled records an error that is about to terminate the process
// and shuts the pipeline down with a short timeout. Process-level hooks call
// it before exiting.
func (d *Dispatcher) ReportUnhandled(v any) {
	var err error
	switch x := v.(type) {
	case nil:
		return
	case error:
		err = x
	default:
		err = fmt.Errorf("%v", x)
	}

	_ = d.Write(NewEntry(SeverityError, "Dispatcher", "ReportUnhandled", "Unhandled error", err))
	d.WriteSystem(NewEntry(SeveritySystemError, "Dispatcher", "ReportUnhandled", "Unhandled error, process terminating", err))
	d.Exit(unhandledExitTimeout)
}

// Recover is deferred at the top of a goroutine. It reports a panic through
// ReportUnhandled and re-panics.
//
//	go func() {
//	    defer d.Recover()
//	    work()
//	}()
func (d *Dispatcher) Recover() {
	if r := recover(); r != nil {
		d.ReportUnhandled(r)
		panic(r)
	}
}
