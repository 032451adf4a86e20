// FILE: lixenwraith/logpipe/entry.go
package logpipe

import (
	"fmt"
	"strings"
	"time"

	"github.com/lixenwraith/logpipe/formatter"
)

// EntryTimeFormat is the timestamp layout used by Entry.String
const EntryTimeFormat = "01/02/2006 03:04:05.000 PM -07:00"

// Entry is one log event. Entries are values: the pipeline never edits an
// entry that has been handed to a consumer, relabeling produces a copy.
type Entry struct {
	ThreadID      int
	Timestamp     time.Time
	ClassName     string
	OperationName string
	Message       string
	Err           error
	Trace         string
	Fields        []any

	severity Severity
}

// NewEntry builds an entry stamped with the current time and goroutine id.
// Fields are optional key/value pairs rendered after the message.
func NewEntry(severity Severity, className, operationName, message string, err error, fields ...any) Entry {
	return Entry{
		ThreadID:      goroutineID(),
		Timestamp:     time.Now(),
		ClassName:     className,
		OperationName: operationName,
		Message:       message,
		Err:           err,
		Fields:        fields,
		severity:      severity,
	}
}

// Severity returns the severity fixed at construction.
func (e Entry) Severity() Severity {
	return e.severity
}

// Relabel returns a copy of the entry with prefix prepended to its message.
func (e Entry) Relabel(prefix string) Entry {
	e.Message = prefix + e.Message
	return e
}

// WithSeverity returns a copy carrying a different severity. It is the only
// way to change severity and leaves the receiver untouched.
func (e Entry) WithSeverity(s Severity) Entry {
	e.severity = s
	return e
}

// Record converts the entry for rendering by a formatter.
func (e Entry) Record() formatter.Record {
	return formatter.Record{
		Time:      e.Timestamp,
		Severity:  e.severity.String(),
		ThreadID:  e.ThreadID,
		Class:     e.ClassName,
		Operation: e.OperationName,
		Message:   e.Message,
		Err:       e.Err,
		Trace:     e.Trace,
		Fields:    e.Fields,
	}
}

func (e Entry) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) [%d]", e.Timestamp.Format(EntryTimeFormat), e.severity, e.ThreadID)
	if e.ClassName != "" {
		sb.WriteString(" Class: ")
		sb.WriteString(e.ClassName)
	}
	if e.OperationName != "" {
		sb.WriteString(" Method: ")
		sb.WriteString(e.OperationName)
	}
	sb.WriteString(" Message: ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(" Exception: ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}
