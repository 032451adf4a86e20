// FILE: lixenwraith/logpipe/formatter/formatter.go
// Package formatter renders log records as text or JSON lines.
package formatter

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// DefaultTimestampFormat has millisecond precision and a numeric zone
const DefaultTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// badKey labels a trailing field value without a key
const badKey = "!BADKEY"

// Record is the renderable view of a log entry
type Record struct {
	Time      time.Time
	Severity  string
	ThreadID  int
	Class     string
	Operation string
	Message   string
	Err       error
	Trace     string
	Fields    []any // alternating key, value
}

// Formatter renders records into a reusable buffer. It is not safe for
// concurrent use; the returned slice is valid until the next call.
type Formatter struct {
	format          string
	timestampFormat string
	showTimestamp   bool
	showSeverity    bool
	showOrigin      bool
	buf             []byte
}

// New creates a txt formatter with timestamp, severity and origin shown
func New() *Formatter {
	return &Formatter{
		format:          "txt",
		timestampFormat: DefaultTimestampFormat,
		showTimestamp:   true,
		showSeverity:    true,
		showOrigin:      true,
		buf:             make([]byte, 0, 1024),
	}
}

// Type sets the output format ("txt", "json", or "raw")
func (f *Formatter) Type(format string) *Formatter {
	f.format = format
	return f
}

// TimestampFormat sets the timestamp format string
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// ShowTimestamp sets whether to include the timestamp
func (f *Formatter) ShowTimestamp(show bool) *Formatter {
	f.showTimestamp = show
	return f
}

// ShowSeverity sets whether to include the severity
func (f *Formatter) ShowSeverity(show bool) *Formatter {
	f.showSeverity = show
	return f
}

// ShowOrigin sets whether to include thread id, class and operation
func (f *Formatter) ShowOrigin(show bool) *Formatter {
	f.showOrigin = show
	return f
}

// Format renders r as one newline-terminated line
func (f *Formatter) Format(r Record) []byte {
	f.buf = f.buf[:0]
	se := newSerializer(f.format)

	switch f.format {
	case "json":
		return f.formatJSON(r, se)
	case "raw":
		return f.formatRaw(r, se)
	default:
		return f.formatTxt(r, se)
	}
}

// FormatValue renders a single value the way a field value would be rendered
func (f *Formatter) FormatValue(v any) []byte {
	f.buf = f.buf[:0]
	f.convertValue(&f.buf, v, newSerializer(f.format))
	return f.buf
}

// formatTxt renders: time SEVERITY [tid] Class.Operation message key=value...
func (f *Formatter) formatTxt(r Record, se *serializer) []byte {
	needsSpace := false
	space := func() {
		if needsSpace {
			f.buf = append(f.buf, ' ')
		}
		needsSpace = true
	}

	if f.showTimestamp {
		space()
		f.buf = r.Time.AppendFormat(f.buf, f.timestampFormat)
	}

	if f.showSeverity {
		space()
		f.buf = append(f.buf, r.Severity...)
	}

	if f.showOrigin {
		space()
		f.buf = append(f.buf, '[')
		f.buf = strconv.AppendInt(f.buf, int64(r.ThreadID), 10)
		f.buf = append(f.buf, ']')
		if origin := joinOrigin(r.Class, r.Operation); origin != "" {
			f.buf = append(f.buf, ' ')
			se.writeBare(&f.buf, origin)
		}
	}

	if r.Message != "" {
		space()
		se.writeBare(&f.buf, r.Message)
	}

	if r.Err != nil {
		space()
		f.buf = append(f.buf, "error="...)
		se.writeString(&f.buf, r.Err.Error())
	}

	if r.Trace != "" {
		space()
		f.buf = append(f.buf, "trace="...)
		se.writeString(&f.buf, r.Trace)
	}

	forEachField(r.Fields, func(key string, value any) {
		space()
		se.writeBare(&f.buf, key)
		f.buf = append(f.buf, '=')
		f.convertValue(&f.buf, value, se)
	})

	f.buf = append(f.buf, '\n')
	return f.buf
}

// formatJSON renders one JSON object per line
func (f *Formatter) formatJSON(r Record, se *serializer) []byte {
	f.buf = append(f.buf, '{')
	needsComma := false
	key := func(k string) {
		if needsComma {
			f.buf = append(f.buf, ',')
		}
		se.writeString(&f.buf, k)
		f.buf = append(f.buf, ':')
		needsComma = true
	}

	if f.showTimestamp {
		key("time")
		f.buf = append(f.buf, '"')
		f.buf = r.Time.AppendFormat(f.buf, f.timestampFormat)
		f.buf = append(f.buf, '"')
	}

	if f.showSeverity {
		key("severity")
		se.writeString(&f.buf, r.Severity)
	}

	if f.showOrigin {
		key("thread")
		f.buf = strconv.AppendInt(f.buf, int64(r.ThreadID), 10)
		if r.Class != "" {
			key("class")
			se.writeString(&f.buf, r.Class)
		}
		if r.Operation != "" {
			key("operation")
			se.writeString(&f.buf, r.Operation)
		}
	}

	key("message")
	se.writeString(&f.buf, r.Message)

	if r.Err != nil {
		key("error")
		se.writeString(&f.buf, r.Err.Error())
	}

	if r.Trace != "" {
		key("trace")
		se.writeString(&f.buf, r.Trace)
	}

	if len(r.Fields) > 0 {
		key("fields")
		f.buf = append(f.buf, '{')
		first := true
		forEachField(r.Fields, func(k string, v any) {
			if !first {
				f.buf = append(f.buf, ',')
			}
			first = false
			se.writeString(&f.buf, k)
			f.buf = append(f.buf, ':')
			f.convertValue(&f.buf, v, se)
		})
		f.buf = append(f.buf, '}')
	}

	f.buf = append(f.buf, '}', '\n')
	return f.buf
}

// formatRaw renders the message and dumps field values in full, for debugging
func (f *Formatter) formatRaw(r Record, se *serializer) []byte {
	f.buf = append(f.buf, r.Message...)
	if r.Err != nil {
		f.buf = append(f.buf, ": "...)
		f.buf = append(f.buf, r.Err.Error()...)
	}
	forEachField(r.Fields, func(k string, v any) {
		f.buf = append(f.buf, ' ')
		f.buf = append(f.buf, k...)
		f.buf = append(f.buf, '=')
		f.convertValue(&f.buf, v, se)
	})
	f.buf = append(f.buf, '\n')
	return f.buf
}

// convertValue provides unified type conversion
func (f *Formatter) convertValue(buf *[]byte, v any, se *serializer) {
	switch val := v.(type) {
	case string:
		se.writeString(buf, val)

	case []byte:
		se.writeString(buf, string(val))

	case rune:
		var runeStr [utf8.UTFMax]byte
		n := utf8.EncodeRune(runeStr[:], val)
		se.writeString(buf, string(runeStr[:n]))

	case int:
		*buf = strconv.AppendInt(*buf, int64(val), 10)

	case int64:
		*buf = strconv.AppendInt(*buf, val, 10)

	case uint:
		*buf = strconv.AppendUint(*buf, uint64(val), 10)

	case uint64:
		*buf = strconv.AppendUint(*buf, val, 10)

	case float32:
		*buf = strconv.AppendFloat(*buf, float64(val), 'f', -1, 32)

	case float64:
		*buf = strconv.AppendFloat(*buf, val, 'f', -1, 64)

	case bool:
		*buf = strconv.AppendBool(*buf, val)

	case nil:
		se.writeNil(buf)

	case time.Time:
		se.writeString(buf, val.Format(f.timestampFormat))

	case time.Duration:
		se.writeString(buf, val.String())

	case error:
		se.writeString(buf, val.Error())

	case fmt.Stringer:
		se.writeString(buf, val.String())

	default:
		se.writeComplex(buf, val)
	}
}

// forEachField walks alternating key/value pairs
func forEachField(fields []any, fn func(key string, value any)) {
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			fn(badKey, fields[i])
			return
		}
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		fn(key, fields[i+1])
	}
}

func joinOrigin(class, operation string) string {
	switch {
	case class == "":
		return operation
	case operation == "":
		return class
	default:
		return class + "." + operation
	}
}
