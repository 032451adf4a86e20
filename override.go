// FILE: lixenwraith/logpipe/override.go
package logpipe

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to a copy of cfg and returns the
// validated result. cfg is left unchanged.
//
// Example:
//
//	cfg, err := logpipe.ApplyOverride(logpipe.DefaultConfig(),
//	    "ignore_debug_filter=true",
//	    "exit_timeout_ms=2000",
//	)
func ApplyOverride(cfg *Config, overrides ...string) (*Config, error) {
	out := cfg.Clone()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := applyConfigField(out, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, combineConfigErrors(errs)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("logpipe: multiple configuration errors:")
	for i, err := range errors {
		errMsg := strings.TrimPrefix(err.Error(), "logpipe: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "ignore_debug_filter":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for ignore_debug_filter '%s': %w", value, err)
		}
		cfg.IgnoreDebugFilter = boolVal

	case "queue_start_size":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for queue_start_size '%s': %w", value, err)
		}
		cfg.QueueStartSize = intVal
	case "exit_timeout_ms":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for exit_timeout_ms '%s': %w", value, err)
		}
		cfg.ExitTimeoutMs = intVal

	case "trace_depth":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for trace_depth '%s': %w", value, err)
		}
		cfg.TraceDepth = intVal

	case "heartbeat_interval_s":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for heartbeat_interval_s '%s': %w", value, err)
		}
		cfg.HeartbeatIntervalS = intVal

	case "system_output":
		cfg.SystemOutput = value
	case "system_format":
		cfg.SystemFormat = value

	case "purge_on_start":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for purge_on_start '%s': %w", value, err)
		}
		cfg.PurgeOnStart = boolVal

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	return nil
}
