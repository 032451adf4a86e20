// FILE: lixenwraith/logpipe/type.go
package logpipe

import (
	"strings"
)

// Severity classifies an Entry. It is fixed when the entry is constructed.
type Severity int

// Severity values. System severities are used by the facility for its own diagnostics.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityTrace
	SeverityDebug
	SeverityInformation
	SeveritySystemInfo
	SeveritySystemWarning
	SeveritySystemError
)

var severityNames = [...]string{
	SeverityError:         "Error",
	SeverityWarning:       "Warning",
	SeverityTrace:         "Trace",
	SeverityDebug:         "Debug",
	SeverityInformation:   "Information",
	SeveritySystemInfo:    "SystemInfo",
	SeveritySystemWarning: "SystemWarning",
	SeveritySystemError:   "SystemError",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "Unknown"
	}
	return severityNames[s]
}

// IsSystem reports whether the severity belongs to the facility's own diagnostics.
func (s Severity) IsSystem() bool {
	return s >= SeveritySystemInfo && s <= SeveritySystemError
}

// ParseSeverity converts a severity name, case-insensitive, to its constant.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "info":
		return SeverityInformation, nil
	case "warn":
		return SeverityWarning, nil
	}
	for i, s := range severityNames {
		if strings.ToLower(s) == n {
			return Severity(i), nil
		}
	}
	return 0, fmtErrorf("invalid severity string: '%s' (use error, warning, trace, debug, information, systeminfo, systemwarning, systemerror)", name)
}
