// FILE: lixenwraith/logpipe/interface.go
package logpipe

// Convenience producers. Each builds an Entry and routes it through Write;
// the returned error is a direct writer failure, if any.

// Error logs an error-level entry.
func (d *Dispatcher) Error(className, operationName, message string, err error, fields ...any) error {
	return d.log(SeverityError, className, operationName, message, err, fields)
}

// Warning logs a warning-level entry.
func (d *Dispatcher) Warning(className, operationName, message string, fields ...any) error {
	return d.log(SeverityWarning, className, operationName, message, nil, fields)
}

// Trace logs a trace-level entry.
func (d *Dispatcher) Trace(className, operationName, message string, fields ...any) error {
	return d.log(SeverityTrace, className, operationName, message, nil, fields)
}

// Debug logs a debug-level entry. It is dropped unless the debug filter is ignored.
func (d *Dispatcher) Debug(className, operationName, message string, fields ...any) error {
	return d.log(SeverityDebug, className, operationName, message, nil, fields)
}

// Info logs an information-level entry.
func (d *Dispatcher) Info(className, operationName, message string, fields ...any) error {
	return d.log(SeverityInformation, className, operationName, message, nil, fields)
}

// log handles the common entry construction
func (d *Dispatcher) log(severity Severity, className, operationName, message string, err error, fields []any) error {
	e := NewEntry(severity, className, operationName, message, err, fields...)
	if d.cfg.TraceDepth > 0 {
		const skipTrace = 3 // Dispatcher.Info -> log -> getTrace
		e.Trace = getTrace(d.cfg.TraceDepth, skipTrace)
	}
	return d.Write(e)
}
