// FILE: lixenwraith/logpipe/attributes.go
package logpipe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attributes is the free-form, writer-specific part of a WriterConfig.
// Values come from TOML, so numbers may arrive as int64 or float64 and
// anything may arrive as a string.
type Attributes map[string]any

// Text returns the value for key verbatim, or def when absent or empty.
// Use it where surrounding whitespace is part of the value.
func (a Attributes) Text(key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	s := fmt.Sprint(v)
	if s == "" {
		return def
	}
	return s
}

// String returns the trimmed value for key, or def when absent or blank.
func (a Attributes) String(key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return def
	}
	return s
}

// Int64 returns the integer value for key, or def when absent.
// A present value that is not an integer is an error.
func (a Attributes) Int64(key string, def int64) (int64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmtErrorf("attribute '%s' value %d overflows int64", key, n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmtErrorf("attribute '%s' value %v is not an integer", key, n)
		}
		return int64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return def, nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmtErrorf("attribute '%s' value '%s' is not an integer: %w", key, n, err)
		}
		return i, nil
	default:
		return 0, fmtErrorf("attribute '%s' has unsupported type %T", key, v)
	}
}

// NonNegativeInt64 is Int64 with a lower bound of zero.
func (a Attributes) NonNegativeInt64(key string, def int64) (int64, error) {
	n, err := a.Int64(key, def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmtErrorf("attribute '%s' must be non-negative, got %d", key, n)
	}
	return n, nil
}

// Bool returns the boolean value for key, or def when absent.
func (a Attributes) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		s := strings.TrimSpace(b)
		if s == "" {
			return def, nil
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmtErrorf("attribute '%s' value '%s' is not a boolean: %w", key, b, err)
		}
		return parsed, nil
	default:
		return false, fmtErrorf("attribute '%s' has unsupported type %T", key, v)
	}
}
