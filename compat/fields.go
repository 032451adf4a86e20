// FILE: lixenwraith/logpipe/compat/fields.go
package compat

import (
	"fmt"
	"regexp"
	"strings"
)

// keyValuePattern detects "key=%v" or "key: %v" fragments in format strings
var keyValuePattern = regexp.MustCompile(`(\w+)\s*[:=]\s*%[vsdqxXeEfFgGpbcU]`)

// parseFormat splits a printf-style format into a message and key/value fields.
// It reports false when the format carries no recognizable fields.
func parseFormat(format string, args []any) (string, []any, bool) {
	matches := keyValuePattern.FindAllStringSubmatchIndex(format, -1)
	if len(matches) == 0 || len(matches) > len(args) {
		return "", nil, false
	}
	// Verbs outside the matched fragments would misalign args
	if strings.Count(format, "%")-strings.Count(format, "%%")*2 != len(matches) {
		return "", nil, false
	}

	var msg strings.Builder
	fields := make([]any, 0, len(matches)*2)
	lastEnd := 0
	for i, match := range matches {
		if match[0] > lastEnd {
			appendText(&msg, format[lastEnd:match[0]])
		}
		fields = append(fields, format[match[2]:match[3]], args[i])
		lastEnd = match[1]
	}
	if lastEnd < len(format) {
		appendText(&msg, format[lastEnd:])
	}
	if len(args) > len(matches) {
		appendText(&msg, fmt.Sprint(args[len(matches):]...))
	}

	return msg.String(), fields, true
}

func appendText(b *strings.Builder, s string) {
	s = strings.Trim(strings.ReplaceAll(s, "%%", "%"), " ,;:")
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(s)
}
