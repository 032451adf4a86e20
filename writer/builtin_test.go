// FILE: lixenwraith/logpipe/writer/builtin_test.go
package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/writer/console"
	"github.com/lixenwraith/logpipe/writer/file"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.ElementsMatch(t, []string{
		"/" + file.TypeName,
		"/" + console.TypeName,
		"/" + console.DebugTypeName,
		"/" + console.SystemDebugTypeName,
	}, r.Types())

	assert.Error(t, RegisterBuiltins(r), "duplicate registration is rejected")
}

func TestBuiltinsThroughDispatcher(t *testing.T) {
	dir := t.TempDir()
	var sys bytes.Buffer

	d, err := logpipe.New(logpipe.DefaultConfig(),
		logpipe.WithRegistry(NewRegistry()),
		logpipe.WithSystemOutput(&sys))
	require.NoError(t, err)

	err = d.Configure([]logpipe.WriterConfig{
		{
			Type:               file.TypeName,
			Name:               "files",
			UseBackgroundQueue: true,
			Attributes: logpipe.Attributes{
				file.AttrDirectory: dir,
				file.AttrFileName:  "svc.log",
			},
		},
	})
	require.NoError(t, err)

	stats := d.Stats()
	assert.Equal(t, 1, stats.QueuedWriters)
	assert.Equal(t, 0, stats.DirectWriters)

	for i := 0; i < 20; i++ {
		require.NoError(t, d.Info("Service", "Handle", "request handled", "n", i))
	}
	require.NoError(t, d.Debug("Service", "Handle", "filtered out"))

	reports, err := d.Archive(logpipe.DefaultArchiveArgs(time.Now()))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "files", reports[0].Writer)

	assert.True(t, d.Exit(2*time.Second))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var content string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), file.LogExtension) {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			content += string(data)
		}
	}
	assert.Equal(t, 20, strings.Count(content, "request handled"))
	assert.NotContains(t, content, "filtered out")
	assert.Contains(t, content, "Dispose log writer: files")
}

func TestSystemDebugWriterReceivesSystemEntries(t *testing.T) {
	var out bytes.Buffer
	r := NewRegistry()
	d, err := logpipe.New(logpipe.DefaultConfig(), logpipe.WithRegistry(r), logpipe.WithSystemOutput(nil))
	require.NoError(t, err)
	defer d.Exit(time.Second)

	sw := console.NewSystemDebug(&out)
	require.NoError(t, d.AddWriter(sw, &logpipe.WriterConfig{Type: console.SystemDebugTypeName}))

	d.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemWarning, "Queue", "Deliver", "writer failed", nil))
	assert.Contains(t, out.String(), "Message: writer failed")
}

func TestSystemDebugWriterSharesFallbackStream(t *testing.T) {
	var out bytes.Buffer
	d, err := logpipe.New(logpipe.DefaultConfig(), logpipe.WithRegistry(NewRegistry()), logpipe.WithSystemOutput(&out))
	require.NoError(t, err)
	defer d.Exit(time.Second)

	require.NoError(t, d.AddWriter(console.NewSystemDebug(&out), &logpipe.WriterConfig{Type: console.SystemDebugTypeName}))

	d.WriteSystem(logpipe.NewEntry(logpipe.SeveritySystemError, "Queue", "Deliver", "reported once", nil))
	assert.Equal(t, 1, strings.Count(out.String(), "reported once"))
}
