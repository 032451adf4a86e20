// FILE: lixenwraith/logpipe/writer/file/purge_test.go
package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeUnlimitedKeepsEverything(t *testing.T) {
	dir := t.TempDir()
	n := NewNaming("app")
	for i := 1; i <= 5; i++ {
		writeLogFile(t, dir, n, time.Now().AddDate(0, 0, -i*100), 1000)
	}

	p := NewPurgePolicy(dir, n, Unlimited, Unlimited, nil)
	assert.False(t, p.Enabled())
	res := p.Run("")
	assert.Empty(t, res.Deleted)
	assert.Len(t, listNames(t, dir), 5)

	assert.Equal(t, []string{
		"Logging configured to keep logs forever.",
		"Logging configured with no storage size limit.",
	}, p.Describe())
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	n := NewNaming("app")
	now := day(2024, 5, 20)

	expired := writeLogFile(t, dir, n, now.AddDate(0, 0, -10), 10)
	edge := writeLogFile(t, dir, n, now.AddDate(0, 0, -7).Add(time.Hour), 10)
	fresh := writeLogFile(t, dir, n, now.AddDate(0, 0, -1), 10)
	foreign := filepath.Join(dir, "other.20200101T000000.log")
	require.NoError(t, os.WriteFile(foreign, nil, 0644))

	host := &recordingHost{}
	p := NewPurgePolicy(dir, n, 7, Unlimited, host)
	p.now = func() time.Time { return now }

	res := p.Run("")
	assert.Equal(t, []string{filepath.Base(expired)}, res.Deleted)
	assert.Empty(t, res.Errors)
	assert.NoFileExists(t, expired)
	assert.FileExists(t, edge)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign, "other base names are untouched")
	assert.Equal(t, uint64(1), p.Deleted())

	require.Len(t, host.messages(), 1)
	assert.Contains(t, host.messages()[0], "removed (expired)")
}

func TestPurgeBySize(t *testing.T) {
	dir := t.TempDir()
	n := NewNaming("app")
	now := day(2024, 5, 20)

	oldest := writeLogFile(t, dir, n, now.Add(-4*time.Hour), 100)
	older := writeLogFile(t, dir, n, now.Add(-3*time.Hour), 100)
	newer := writeLogFile(t, dir, n, now.Add(-2*time.Hour), 100)
	newest := writeLogFile(t, dir, n, now.Add(-1*time.Hour), 100)

	p := NewPurgePolicy(dir, n, Unlimited, 250, nil)
	res := p.Run("")

	assert.Equal(t, []string{filepath.Base(oldest), filepath.Base(older)}, res.Deleted)
	assert.FileExists(t, newer)
	assert.FileExists(t, newest)
}

func TestPurgeKeepsActiveFile(t *testing.T) {
	dir := t.TempDir()
	n := NewNaming("app")
	now := time.Now()

	active := writeLogFile(t, dir, n, now.AddDate(0, 0, -30), 500)
	other := writeLogFile(t, dir, n, now.AddDate(0, 0, -20), 500)

	p := NewPurgePolicy(dir, n, 1, 100, nil)
	res := p.Run(active)

	assert.Equal(t, []string{filepath.Base(other)}, res.Deleted)
	assert.FileExists(t, active, "the active file is never deleted")
}

func TestPurgeActiveCountsTowardSize(t *testing.T) {
	dir := t.TempDir()
	n := NewNaming("app")
	now := time.Now()

	old := writeLogFile(t, dir, n, now.Add(-2*time.Hour), 100)
	active := writeLogFile(t, dir, n, now.Add(-time.Hour), 200)

	// 300 total exceeds 250 only because of the active file
	p := NewPurgePolicy(dir, n, Unlimited, 250, nil)
	res := p.Run(active)

	assert.Equal(t, []string{filepath.Base(old)}, res.Deleted)
	assert.FileExists(t, active)
}

func TestPurgeContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	n := NewNaming("app")
	now := time.Now()

	stuck := writeLogFile(t, dir, n, now.AddDate(0, 0, -10), 10)
	gone := writeLogFile(t, dir, n, now.AddDate(0, 0, -9), 10)

	host := &recordingHost{}
	p := NewPurgePolicy(dir, n, 2, Unlimited, host)
	p.removeFn = func(path string) error {
		if path == stuck {
			return errors.New("permission denied")
		}
		return os.Remove(path)
	}

	res := p.Run("")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "permission denied")
	assert.Equal(t, []string{filepath.Base(gone)}, res.Deleted)
	assert.FileExists(t, stuck)
	assert.NoFileExists(t, gone)

	msgs := host.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "could not remove")
}

func TestPurgeMissingDirectory(t *testing.T) {
	host := &recordingHost{}
	p := NewPurgePolicy(filepath.Join(t.TempDir(), "absent"), NewNaming("app"), 1, Unlimited, host)
	res := p.Run("")
	assert.Len(t, res.Errors, 1)
	assert.Len(t, host.messages(), 1)
}

func TestPurgeDescribe(t *testing.T) {
	p := NewPurgePolicy(t.TempDir(), NewNaming("app"), 14, 1<<20, nil)
	assert.True(t, p.Enabled())
	assert.Equal(t, []string{
		"Logging configured to keep logs for 14 days.",
		"Logging configured to keep at most 1048576 bytes of logs.",
	}, p.Describe())
}
