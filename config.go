// FILE: lixenwraith/logpipe/config.go
package logpipe

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lixenwraith/config"
	"github.com/pelletier/go-toml/v2"
)

// configPrefix is the TOML table holding Config
const configPrefix = "logpipe."

// Config holds the dispatcher settings. Writers are described separately by WriterConfig.
type Config struct {
	// Filtering
	IgnoreDebugFilter bool `toml:"ignore_debug_filter"` // true lets Debug entries through

	// Delivery queue
	QueueStartSize int64 `toml:"queue_start_size"` // Initial capacity of each batch
	ExitTimeoutMs  int64 `toml:"exit_timeout_ms"`  // Bound for each Exit phase

	// Entry decoration
	TraceDepth int64 `toml:"trace_depth"` // Call trace depth for convenience producers (0-10)

	// Heartbeat
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // 0 disables the statistics heartbeat

	// System channel fallback
	SystemOutput string `toml:"system_output"` // "stderr", "stdout" or "none"
	SystemFormat string `toml:"system_format"` // "txt" or "json"

	// Housekeeping
	PurgeOnStart bool `toml:"purge_on_start"` // Purge all writers after configuration
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	IgnoreDebugFilter: false,

	QueueStartSize: 100,
	ExitTimeoutMs:  int64(DefaultExitTimeout / time.Millisecond),

	TraceDepth: 0,

	HeartbeatIntervalS: 0,

	SystemOutput: "stderr",
	SystemFormat: "txt",

	PurgeOnStart: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// ExitTimeout returns the configured exit bound as a duration
func (c *Config) ExitTimeout() time.Duration {
	return time.Duration(c.ExitTimeoutMs) * time.Millisecond
}

// NewConfigFromFile loads the [logpipe] table of a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()

	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// Missing file means defaults
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	switch c.SystemOutput {
	case "stderr", "stdout", "none":
	default:
		return fmtErrorf("invalid system_output: '%s' (use stderr, stdout, or none)", c.SystemOutput)
	}

	if c.SystemFormat != "txt" && c.SystemFormat != "json" {
		return fmtErrorf("invalid system_format: '%s' (use txt or json)", c.SystemFormat)
	}

	if c.QueueStartSize <= 0 {
		return fmtErrorf("queue_start_size must be positive: %d", c.QueueStartSize)
	}

	if c.ExitTimeoutMs <= 0 {
		return fmtErrorf("exit_timeout_ms must be positive: %d", c.ExitTimeoutMs)
	}

	if c.TraceDepth < 0 || c.TraceDepth > 10 {
		return fmtErrorf("trace_depth must be between 0 and 10: %d", c.TraceDepth)
	}

	if c.HeartbeatIntervalS < 0 {
		return fmtErrorf("heartbeat_interval_s cannot be negative: %d", c.HeartbeatIntervalS)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// validate is shared by every struct-tag validation in the package
var validate = validator.New(validator.WithRequiredStructEnabled())

// writerFile is the shape of the [[writers]] tables in a config file
type writerFile struct {
	Writers []WriterConfig `toml:"writers" validate:"dive"`
}

// LoadWriterConfigs reads the [[writers]] tables of a TOML file.
// A missing file yields no descriptors.
func LoadWriterConfigs(path string) ([]WriterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmtErrorf("failed to read writer configuration %s: %w", path, err)
	}
	return ParseWriterConfigs(data)
}

// ParseWriterConfigs decodes and validates [[writers]] tables from TOML data.
func ParseWriterConfigs(data []byte) ([]WriterConfig, error) {
	var wf writerFile
	if err := toml.Unmarshal(data, &wf); err != nil {
		return nil, fmtErrorf("failed to decode writer configuration: %w", err)
	}
	if err := validate.Struct(wf); err != nil {
		return nil, fmtErrorf("invalid writer configuration: %w", err)
	}
	for i := range wf.Writers {
		wf.Writers[i].Type = strings.TrimSpace(wf.Writers[i].Type)
	}
	return wf.Writers, nil
}

// ValidateArchiveArgs checks that the range is ordered and the cap is not negative.
func ValidateArchiveArgs(args ArchiveArgs) error {
	if err := validate.Struct(args); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "End" {
					return fmt.Errorf("%w: %s before %s", ErrInvalidArchiveRange,
						args.End.Format(time.DateTime), args.Start.Format(time.DateTime))
				}
			}
		}
		return fmtErrorf("invalid archive arguments: %w", err)
	}
	return nil
}
