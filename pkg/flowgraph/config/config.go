package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config wraps a map[string]any for type-safe value extraction.
//
// Keys may be dotted paths into nested maps: "llm.model" reads
// data["llm"]["model"]. A literal key containing a dot wins over the path.
// All accessors return the default if the key is missing or the value
// cannot be converted.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	child, ok := asMap(c.data[head])
	if !ok {
		return nil, false
	}
	return Config{data: child}.lookup(rest)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// Section returns the nested map at key as a Config, or an empty Config.
func (c Config) Section(key string) Config {
	v, ok := c.lookup(key)
	if !ok {
		return New(nil)
	}
	m, ok := asMap(v)
	if !ok {
		return New(nil)
	}
	return New(m)
}

// Decode copies the config into out, a pointer to a struct with
// `mapstructure` tags. Fields absent from the config keep their current
// values, so out can be pre-filled with defaults. Durations accept
// strings like "30s"; string slices accept comma-separated strings.
func (c Config) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("config decoder: %w", err)
	}
	if err := dec.Decode(c.data); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.get(key).(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration for key, or defaultVal if missing or invalid.
// Strings are parsed with time.ParseDuration; numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.get(key).(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.get(key).(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not
// convertible. Floats convert only without a fractional part.
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.get(key).(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not convertible.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch val := c.get(key).(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing
// or if any element is not a string.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.get(key).(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}

// Any returns the raw value for key, or defaultVal if missing.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return defaultVal
}

// Has reports whether key exists.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Raw returns the underlying map. It must not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func (c Config) get(key string) any {
	v, _ := c.lookup(key)
	return v
}
