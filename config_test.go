// FILE: lixenwraith/logpipe/config_test.go
package logpipe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.False(t, cfg.IgnoreDebugFilter)
	assert.Equal(t, int64(100), cfg.QueueStartSize)
	assert.Equal(t, DefaultExitTimeout, cfg.ExitTimeout())
	assert.Equal(t, int64(0), cfg.TraceDepth)
	assert.Equal(t, "stderr", cfg.SystemOutput)
	assert.Equal(t, "txt", cfg.SystemFormat)
	assert.True(t, cfg.PurgeOnStart)
	assert.NoError(t, cfg.Validate())
}

func TestConfigClone(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg1.IgnoreDebugFilter = true
	cfg1.SystemOutput = "stdout"

	cfg2 := cfg1.Clone()
	assert.Equal(t, cfg1, cfg2)

	// Modify original
	cfg1.SystemOutput = "none"

	// Verify clone unchanged
	assert.Equal(t, "stdout", cfg2.SystemOutput)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError string
	}{
		{
			name:      "valid config",
			modify:    func(c *Config) {},
			wantError: "",
		},
		{
			name:      "invalid system output",
			modify:    func(c *Config) { c.SystemOutput = "file" },
			wantError: "invalid system_output",
		},
		{
			name:      "invalid system format",
			modify:    func(c *Config) { c.SystemFormat = "xml" },
			wantError: "invalid system_format",
		},
		{
			name:      "zero queue size",
			modify:    func(c *Config) { c.QueueStartSize = 0 },
			wantError: "queue_start_size must be positive",
		},
		{
			name:      "zero exit timeout",
			modify:    func(c *Config) { c.ExitTimeoutMs = 0 },
			wantError: "exit_timeout_ms must be positive",
		},
		{
			name:      "trace depth too deep",
			modify:    func(c *Config) { c.TraceDepth = 11 },
			wantError: "trace_depth must be between 0 and 10",
		},
		{
			name:      "negative heartbeat",
			modify:    func(c *Config) { c.HeartbeatIntervalS = -1 },
			wantError: "heartbeat_interval_s cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantError == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
			}
		})
	}
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("values from table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logpipe.toml")
		content := `
[logpipe]
ignore_debug_filter = true
exit_timeout_ms = 2500
system_output = "stdout"
purge_on_start = false
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.True(t, cfg.IgnoreDebugFilter)
		assert.Equal(t, 2500*time.Millisecond, cfg.ExitTimeout())
		assert.Equal(t, "stdout", cfg.SystemOutput)
		assert.False(t, cfg.PurgeOnStart)
		assert.Equal(t, int64(100), cfg.QueueStartSize)
	})
}

func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"trace_depth":         3,
		"ignore_debug_filter": true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.TraceDepth)
	assert.True(t, cfg.IgnoreDebugFilter)

	_, err = NewConfigFromDefaults(map[string]any{"nope": 1})
	assert.Error(t, err)

	_, err = NewConfigFromDefaults(map[string]any{"trace_depth": "deep"})
	assert.Error(t, err)
}

func TestApplyOverride(t *testing.T) {
	base := DefaultConfig()

	cfg, err := ApplyOverride(base,
		"ignore_debug_filter=true",
		"queue_start_size=16",
		"exit_timeout_ms=2000",
		"trace_depth=2",
		"heartbeat_interval_s=5",
		"system_output=none",
		"system_format=json",
		"purge_on_start=false",
	)
	require.NoError(t, err)
	assert.True(t, cfg.IgnoreDebugFilter)
	assert.Equal(t, int64(16), cfg.QueueStartSize)
	assert.Equal(t, 2*time.Second, cfg.ExitTimeout())
	assert.Equal(t, int64(2), cfg.TraceDepth)
	assert.Equal(t, int64(5), cfg.HeartbeatIntervalS)
	assert.Equal(t, "none", cfg.SystemOutput)
	assert.Equal(t, "json", cfg.SystemFormat)
	assert.False(t, cfg.PurgeOnStart)

	// Base unchanged
	assert.False(t, base.IgnoreDebugFilter)

	_, err = ApplyOverride(base, "unknown=1", "trace_depth=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple configuration errors")

	_, err = ApplyOverride(base, "trace_depth=20")
	assert.Error(t, err, "result is validated")
}

func TestParseWriterConfigs(t *testing.T) {
	data := []byte(`
[[writers]]
type = "RotatingFileWriter"
name = "main"
use_background_queue = true
[writers.attributes]
directory = "/var/log/app"
max_file_size_bytes = 1048576

[[writers]]
type = "ConsoleWriter"
module = "Extras"
`)
	writers, err := ParseWriterConfigs(data)
	require.NoError(t, err)
	require.Len(t, writers, 2)

	assert.Equal(t, "RotatingFileWriter", writers[0].Type)
	assert.Equal(t, "main", writers[0].DisplayName())
	assert.True(t, writers[0].UseBackgroundQueue)
	assert.Equal(t, "/var/log/app", writers[0].Attributes.String("directory", ""))
	size, err := writers[0].Attributes.Int64("max_file_size_bytes", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), size)

	assert.Equal(t, "ConsoleWriter", writers[1].DisplayName())
	assert.Equal(t, "Extras", writers[1].Module)

	_, err = ParseWriterConfigs([]byte("[[writers]]\nname = \"untyped\"\n"))
	assert.Error(t, err, "type is required")

	_, err = ParseWriterConfigs([]byte("[[writers]\n"))
	assert.Error(t, err)
}

func TestLoadWriterConfigsMissingFile(t *testing.T) {
	writers, err := LoadWriterConfigs(filepath.Join(t.TempDir(), "absent.toml"))
	assert.NoError(t, err)
	assert.Nil(t, writers)
}

func TestValidateArchiveArgs(t *testing.T) {
	now := time.Now()
	assert.NoError(t, ValidateArchiveArgs(DefaultArchiveArgs(now)))
	assert.NoError(t, ValidateArchiveArgs(ArchiveArgs{End: now}), "zero start is unbounded")

	err := ValidateArchiveArgs(ArchiveArgs{Start: now, End: now.Add(-time.Second)})
	assert.ErrorIs(t, err, ErrInvalidArchiveRange)

	err = ValidateArchiveArgs(ArchiveArgs{Start: now, End: now, MaxArchiveSizeBytes: -5})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArchiveRange)
}

func TestDefaultArchiveArgs(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 30, 0, 0, time.UTC)
	args := DefaultArchiveArgs(now)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), args.Start)
	assert.Equal(t, time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC), args.End)
	assert.Equal(t, IgnoreFileSizeLimits, args.MaxArchiveSizeBytes)
}

func TestWriterConfigClone(t *testing.T) {
	wc := &WriterConfig{Type: "T", Attributes: Attributes{"a": 1}}
	wc.Host = nopHost{}
	c := wc.Clone()
	c.Attributes["a"] = 2

	assert.Nil(t, c.Host)
	assert.Equal(t, 1, wc.Attributes["a"])
}
