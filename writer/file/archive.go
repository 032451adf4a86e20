// FILE: lixenwraith/logpipe/writer/file/archive.go
package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/lixenwraith/logpipe"
)

// Archive layout
const (
	ArchiveDirName   = "Archive"
	SizeLimitMarker  = "size_limit_reached.txt"
	NoLogsMarker     = "no_logs.txt"
	DefaultPattern   = "*" + LogExtension
	CompressionStore = "store"
	CompressionFlate = "deflate"
	CompressionZstd  = "zstd"
)

// ArchiveService bundles the log files of a date range into a zip placed in
// the Archive subfolder. Only the last attempt's outcome is kept.
type ArchiveService struct {
	dir     string
	naming  Naming
	pattern string
	method  uint16

	mu         sync.Mutex
	lastOK     bool
	lastErr    error
	lastBundle string
}

// NewArchiveService validates the search pattern and compression name.
func NewArchiveService(dir string, naming Naming, pattern, compression string) (*ArchiveService, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid archive search pattern '%s': %w", pattern, err)
	}

	var method uint16
	switch strings.ToLower(compression) {
	case "", CompressionFlate:
		method = zip.Deflate
	case CompressionStore:
		method = zip.Store
	case CompressionZstd:
		method = zstd.ZipMethodWinZip
	default:
		return nil, fmt.Errorf("invalid archive compression '%s' (use deflate, zstd, or store)", compression)
	}

	return &ArchiveService{
		dir:     dir,
		naming:  naming,
		pattern: strings.ToLower(pattern),
		method:  method,
	}, nil
}

// Archive runs an archive pass and records its outcome.
func (a *ArchiveService) Archive(args logpipe.ArchiveArgs) {
	bundle, err := a.Run(args)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastOK = err == nil
	a.lastErr = err
	a.lastBundle = bundle
}

// IsArchiveSuccess reports the outcome of the last pass
func (a *ArchiveService) IsArchiveSuccess() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastOK
}

// ArchiveFailure returns why the last pass failed, nil after a success
func (a *ArchiveService) ArchiveFailure() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// LastBundle returns the path of the last bundle produced
func (a *ArchiveService) LastBundle() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastBundle
}

// Run builds the bundle for args and moves it into the Archive subfolder,
// returning its final path. Locked files are skipped.
func (a *ArchiveService) Run(args logpipe.ArchiveArgs) (string, error) {
	if err := logpipe.ValidateArchiveArgs(args); err != nil {
		return "", err
	}

	candidates, err := a.candidates(args)
	if err != nil {
		return "", err
	}

	bundle := filepath.Join(a.dir, a.naming.ArchiveName(args.Start, args.End))
	if err := a.writeBundle(bundle, candidates, args.MaxArchiveSizeBytes); err != nil {
		_ = os.Remove(bundle)
		return "", err
	}

	archiveDir := filepath.Join(a.dir, ArchiveDirName)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory '%s': %w", archiveDir, err)
	}
	target := filepath.Join(archiveDir, filepath.Base(bundle))
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to replace existing bundle '%s': %w", target, err)
	}
	if err := os.Rename(bundle, target); err != nil {
		return "", fmt.Errorf("failed to move bundle to '%s': %w", target, err)
	}
	return target, nil
}

// candidates lists matching files in range, newest first
func (a *ArchiveService) candidates(args logpipe.ArchiveArgs) ([]logFileMeta, error) {
	files, err := listLogFiles(a.dir, a.naming, func(name string) bool {
		ok, _ := filepath.Match(a.pattern, strings.ToLower(name))
		return ok
	})
	if err != nil {
		return nil, err
	}

	var selected []logFileMeta
	for _, f := range files {
		// Unparseable names are dated at the zero time
		f.created = a.naming.FileTime(f.name)
		if inRange(f.created, args) {
			selected = append(selected, f)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].created.Equal(selected[j].created) {
			return selected[i].name > selected[j].name
		}
		return selected[i].created.After(selected[j].created)
	})
	return selected, nil
}

// inRange compares the file's date with the start date and its midnight with End
func inRange(t time.Time, args logpipe.ArchiveArgs) bool {
	day := truncateDay(t)
	if !args.Start.IsZero() && day.Before(truncateDay(args.Start)) {
		return false
	}
	return !day.After(args.End)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// writeBundle zips files into path, stopping with a marker once maxBytes would be exceeded
func (a *ArchiveService) writeBundle(path string, files []logFileMeta, maxBytes int64) (err error) {
	_ = os.Remove(path)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create bundle '%s': %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close bundle '%s': %w", path, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	if a.method == zstd.ZipMethodWinZip {
		zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	}

	var total int64
	added := 0
	limitReached := false
	for _, f := range files {
		if isLocked(f.path) {
			continue
		}
		if maxBytes > logpipe.IgnoreFileSizeLimits && total+f.size > maxBytes {
			limitReached = true
			break
		}
		if err := a.addFile(zw, f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			_ = zw.Close()
			return err
		}
		total += f.size
		added++
	}

	switch {
	case limitReached:
		err = addMarker(zw, SizeLimitMarker)
	case added == 0:
		err = addMarker(zw, NoLogsMarker)
	}
	if err != nil {
		_ = zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish bundle '%s': %w", path, err)
	}
	return nil
}

func (a *ArchiveService) addFile(zw *zip.Writer, f logFileMeta) error {
	src, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{
		Name:     f.name,
		Method:   a.method,
		Modified: f.modTime,
	})
	if err != nil {
		return fmt.Errorf("failed to add '%s' to bundle: %w", f.name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy '%s' into bundle: %w", f.name, err)
	}
	return nil
}

func addMarker(zw *zip.Writer, name string) error {
	if _, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to add marker '%s': %w", name, err)
	}
	return nil
}
