// FILE: lixenwraith/logpipe/writer/file/purge.go
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/logpipe"
)

// Unlimited disables a purge rule
const Unlimited int64 = 0

// logFileMeta describes one candidate file of a purge or archive pass
type logFileMeta struct {
	name    string
	path    string
	created time.Time // from the file name, modification time when unparseable
	modTime time.Time
	size    int64
	active  bool
}

// PurgePolicy deletes log files of one base name by age and by aggregate size.
type PurgePolicy struct {
	dir      string
	naming   Naming
	maxDays  int64
	maxBytes int64
	host     logpipe.Host
	now      func() time.Time
	removeFn func(string) error

	mu      sync.Mutex // one pass at a time
	deleted atomic.Uint64
}

// PurgeResult lists what a pass removed and what it failed to remove
type PurgeResult struct {
	Deleted []string
	Errors  []error
}

// NewPurgePolicy creates a policy; maxDays and maxBytes of Unlimited disable their rule.
// host receives an entry per deletion and per failure; it may be nil.
func NewPurgePolicy(dir string, naming Naming, maxDays, maxBytes int64, host logpipe.Host) *PurgePolicy {
	return &PurgePolicy{
		dir:      dir,
		naming:   naming,
		maxDays:  maxDays,
		maxBytes: maxBytes,
		host:     logpipe.HostOrNop(host),
		now:      time.Now,
		removeFn: os.Remove,
	}
}

// Enabled reports whether any rule is active
func (p *PurgePolicy) Enabled() bool {
	return p.maxDays > Unlimited || p.maxBytes > Unlimited
}

// Describe returns one line per rule stating the configured retention
func (p *PurgePolicy) Describe() []string {
	var lines []string
	if p.maxDays == Unlimited {
		lines = append(lines, "Logging configured to keep logs forever.")
	} else {
		lines = append(lines, fmt.Sprintf("Logging configured to keep logs for %d days.", p.maxDays))
	}
	if p.maxBytes == Unlimited {
		lines = append(lines, "Logging configured with no storage size limit.")
	} else {
		lines = append(lines, fmt.Sprintf("Logging configured to keep at most %d bytes of logs.", p.maxBytes))
	}
	return lines
}

// Deleted returns the number of files removed over the policy's lifetime
func (p *PurgePolicy) Deleted() uint64 {
	return p.deleted.Load()
}

// Run applies the age rule, then the size rule. active names the file being
// written; it counts toward the size total but is never deleted.
func (p *PurgePolicy) Run(active string) PurgeResult {
	var res PurgeResult
	if !p.Enabled() {
		return res
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	files, err := p.list(active)
	if err != nil {
		res.Errors = append(res.Errors, err)
		p.report(logpipe.SeverityError, "Purge failed to list log files", err)
		return res
	}

	remaining := files[:0:0]
	if p.maxDays > Unlimited {
		cutoff := p.now().Add(-time.Duration(p.maxDays) * 24 * time.Hour)
		for _, f := range files {
			if !f.active && f.created.Before(cutoff) {
				if p.remove(f, "expired", &res) {
					continue
				}
			}
			remaining = append(remaining, f)
		}
	} else {
		remaining = files
	}

	if p.maxBytes > Unlimited {
		var total int64
		for _, f := range remaining {
			total += f.size
		}
		for _, f := range remaining {
			if total <= p.maxBytes {
				break
			}
			if f.active {
				continue
			}
			if p.remove(f, "storage limit exceeded", &res) {
				total -= f.size
			}
		}
	}

	return res
}

// remove deletes one file, logging the outcome
func (p *PurgePolicy) remove(f logFileMeta, reason string, res *PurgeResult) bool {
	if err := p.removeFn(f.path); err != nil {
		err = fmt.Errorf("failed to remove log file '%s': %w", f.path, err)
		res.Errors = append(res.Errors, err)
		p.report(logpipe.SeverityError, "Purge could not remove log file "+f.name, err)
		return false
	}
	p.deleted.Add(1)
	res.Deleted = append(res.Deleted, f.name)
	p.report(logpipe.SeverityInformation, fmt.Sprintf("Log file %s removed (%s)", f.name, reason), nil)
	return true
}

func (p *PurgePolicy) report(severity logpipe.Severity, msg string, err error) {
	_ = p.host.Write(logpipe.NewEntry(severity, "PurgePolicy", "Run", msg, err))
}

// list returns the files of this base name, oldest first
func (p *PurgePolicy) list(active string) ([]logFileMeta, error) {
	files, err := listLogFiles(p.dir, p.naming, func(name string) bool {
		return p.naming.Matches(name) && strings.EqualFold(filepath.Ext(name), LogExtension)
	})
	if err != nil {
		return nil, err
	}
	activeName := filepath.Base(active)
	for i := range files {
		files[i].active = active != "" && files[i].name == activeName
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].created.Equal(files[j].created) {
			return files[i].name < files[j].name
		}
		return files[i].created.Before(files[j].created)
	})
	return files, nil
}

// listLogFiles collects regular files of dir accepted by match
func listLogFiles(dir string, naming Naming, match func(name string) bool) ([]logFileMeta, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory '%s': %w", dir, err)
	}

	var files []logFileMeta
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		created, _, ok := naming.Parse(entry.Name())
		if !ok {
			created = info.ModTime()
		}
		files = append(files, logFileMeta{
			name:    entry.Name(),
			path:    filepath.Join(dir, entry.Name()),
			created: created,
			modTime: info.ModTime(),
			size:    info.Size(),
		})
	}
	return files, nil
}
