// FILE: lixenwraith/logpipe/writer/file/naming.go
package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Naming scheme, version 1:
//
//	log file:       <base>.<stamp>[_<n>].log
//	archive bundle: <base>.<stamp>--<stamp>.zip
//
// stamp uses TimestampLayout in local time and never contains '_', so the
// collision suffix is whatever follows the last '_' when it is a decimal
// integer of at least 2.
const (
	SchemeVersion   = 1
	TimestampLayout = "20060102T150405"
	LogExtension    = ".log"
	BundleExtension = ".zip"
)

// Naming builds and parses file names for one base name
type Naming struct {
	Base string
}

// NewNaming derives the base from a configured file name by dropping its extension.
func NewNaming(fileName string) Naming {
	name := filepath.Base(fileName)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return Naming{Base: name}
}

// FileName returns the log file name for t; seq values below 2 add no suffix.
func (n Naming) FileName(t time.Time, seq int) string {
	var sb strings.Builder
	sb.WriteString(n.Base)
	sb.WriteByte('.')
	sb.WriteString(t.Format(TimestampLayout))
	if seq >= 2 {
		sb.WriteByte('_')
		sb.WriteString(strconv.Itoa(seq))
	}
	sb.WriteString(LogExtension)
	return sb.String()
}

// NextFileName returns the first FileName for t that does not exist in dir.
func (n Naming) NextFileName(dir string, t time.Time) (string, error) {
	for seq := 1; ; seq++ {
		name := n.FileName(t, seq)
		_, err := os.Stat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// ArchiveName returns the bundle name for a range.
func (n Naming) ArchiveName(start, end time.Time) string {
	return n.Base + "." + start.Format(TimestampLayout) + "--" + end.Format(TimestampLayout) + BundleExtension
}

// Matches reports whether name belongs to this base.
func (n Naming) Matches(name string) bool {
	return strings.HasPrefix(name, n.Base+".")
}

// Parse extracts the timestamp and collision sequence from a log file name.
// ok is false for names outside the scheme.
func (n Naming) Parse(name string) (t time.Time, seq int, ok bool) {
	if !n.Matches(name) {
		return time.Time{}, 0, false
	}
	rest := strings.TrimPrefix(name, n.Base+".")
	ext := filepath.Ext(rest)
	if !strings.EqualFold(ext, LogExtension) {
		return time.Time{}, 0, false
	}
	rest = strings.TrimSuffix(rest, ext)

	seq = 1
	if i := strings.LastIndexByte(rest, '_'); i >= 0 {
		s, err := strconv.Atoi(rest[i+1:])
		if err != nil || s < 2 {
			return time.Time{}, 0, false
		}
		seq = s
		rest = rest[:i]
	}

	t, err := time.ParseInLocation(TimestampLayout, rest, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return t, seq, true
}

// FileTime returns the represented time of name, or the zero time when it cannot be parsed.
func (n Naming) FileTime(name string) time.Time {
	t, _, _ := n.Parse(name)
	return t
}
