// FILE: lixenwraith/logpipe/writer/console/console.go
// Package console provides terminal and debug stream writers.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/formatter"
)

// TypeName is the registry name of the console writer
const TypeName = "ConsoleWriter"

// Attribute keys read by Initialize
const (
	AttrTarget  = "target"  // "stdout" or "stderr"
	AttrColor   = "color"   // "auto" or "never"
	AttrPrepend = "prepend" // text written before every line
	AttrFormat  = "format"  // "txt" or "json"
)

// severityColors maps severities to badge foreground and background colors
var severityColors = map[logpipe.Severity][2]string{
	logpipe.SeverityError:         {"15", "1"},
	logpipe.SeverityWarning:       {"0", "3"},
	logpipe.SeverityTrace:         {"15", "4"},
	logpipe.SeverityDebug:         {"0", "7"},
	logpipe.SeverityInformation:   {"0", "2"},
	logpipe.SeveritySystemInfo:    {"0", "6"},
	logpipe.SeveritySystemWarning: {"0", "11"},
	logpipe.SeveritySystemError:   {"15", "9"},
}

// Writer prints entries to a terminal stream with a colored severity badge.
// Color is used only when the stream is a terminal.
type Writer struct {
	mu        sync.Mutex
	name      string
	out       io.Writer
	useQueue  bool
	prepend   string
	color     bool
	json      bool
	styles    map[logpipe.Severity]lipgloss.Style
	formatter *formatter.Formatter
}

// New returns a console writer; out overrides the target stream when not nil.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Factory is the registry constructor
func Factory() logpipe.Writer {
	return New(nil)
}

// Name returns the configured instance name
func (w *Writer) Name() string {
	if w.name == "" {
		return TypeName
	}
	return w.name
}

// Initialize selects the stream, color mode and line format.
func (w *Writer) Initialize(cfg *logpipe.WriterConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	attrs := cfg.Attributes
	w.name = cfg.DisplayName()
	w.useQueue = cfg.UseBackgroundQueue
	w.prepend = attrs.Text(AttrPrepend, "")

	if w.out == nil {
		switch target := attrs.String(AttrTarget, "stdout"); target {
		case "stdout":
			w.out = os.Stdout
		case "stderr":
			w.out = os.Stderr
		default:
			return fmt.Errorf("invalid console target '%s' (use stdout or stderr)", target)
		}
	}

	switch mode := attrs.String(AttrColor, "auto"); mode {
	case "auto":
		w.color = isTerminal(w.out)
	case "never":
		w.color = false
	default:
		return fmt.Errorf("invalid console color mode '%s' (use auto or never)", mode)
	}

	format := attrs.String(AttrFormat, "txt")
	if format != "txt" && format != "json" {
		return fmt.Errorf("invalid format '%s' (use txt or json)", format)
	}
	// The badge carries the severity in txt mode
	w.json = format == "json"
	w.formatter = formatter.New().Type(format).ShowSeverity(format == "json")

	if w.color {
		r := lipgloss.NewRenderer(w.out)
		w.styles = make(map[logpipe.Severity]lipgloss.Style, len(severityColors))
		for sev, c := range severityColors {
			w.styles[sev] = r.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(c[0])).
				Background(lipgloss.Color(c[1])).
				Padding(0, 1)
		}
	}
	return nil
}

// UseBackgroundQueue reports the delivery mode fixed at Initialize
func (w *Writer) UseBackgroundQueue() bool {
	return w.useQueue
}

// Write prints one line for e.
func (w *Writer) Write(e logpipe.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.formatter == nil {
		return logpipe.ErrNotInitialized
	}

	var sb strings.Builder
	sb.WriteString(w.prepend)
	if !w.json {
		sb.WriteString(w.badge(e.Severity()))
		sb.WriteByte(' ')
	}
	sb.Write(w.formatter.Format(e.Record()))

	_, err := io.WriteString(w.out, sb.String())
	return err
}

func (w *Writer) badge(sev logpipe.Severity) string {
	label := sev.String()
	if !w.color {
		return "[" + label + "]"
	}
	style, ok := w.styles[sev]
	if !ok {
		return "[" + label + "]"
	}
	return style.Render(label)
}

// Purge has nothing to clean up
func (w *Writer) Purge() {}

// Close releases nothing; the stream belongs to the process
func (w *Writer) Close() error {
	return nil
}

// isTerminal reports whether out is a terminal file
func isTerminal(out io.Writer) bool {
	f, ok := out.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
