// Package jsonq probes loosely-typed JSON payloads. The Parliament APIs
// disagree on key casing and naming between datasets, so lookups here are
// case-insensitive and accept a list of aliases.
package jsonq

import (
	"strconv"
	"strings"
)

// Find returns the value stored under key in a JSON object, matching the
// key case-insensitively. Returns nil when value is not an object or the
// key is absent.
func Find(value any, key string) any {
	object, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	if v, ok := object[key]; ok {
		return v
	}
	for candidate, v := range object {
		if strings.EqualFold(candidate, key) {
			return v
		}
	}
	return nil
}

// FirstString returns the first non-empty string found under any of the
// given keys. JSON numbers are rendered as strings, so a numeric year
// still reads as "2020". Objects are probed one level deeper under
// text/value/description, matching the LDA API's `{"_value": ...}`
// convention.
func FirstString(value any, keys ...string) string {
	for _, key := range keys {
		entry := Find(value, key)
		if entry == nil {
			continue
		}
		if text, ok := entry.(string); ok {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed
			}
			continue
		}
		if number, ok := entry.(float64); ok {
			return strconv.FormatFloat(number, 'f', -1, 64)
		}
		if _, ok := entry.(map[string]any); ok {
			if text := FirstString(entry, "text", "value", "_value", "description"); text != "" {
				return text
			}
		}
	}
	return ""
}

// FirstInt returns the first integer found under any of the given keys,
// accepting both JSON numbers and numeric strings.
func FirstInt(value any, keys ...string) (int64, bool) {
	for _, key := range keys {
		entry := Find(value, key)
		if entry == nil {
			continue
		}
		switch v := entry.(type) {
		case float64:
			return int64(v), true
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// Array returns the first non-empty array found under any of the given
// keys.
func Array(value any, keys ...string) []any {
	for _, key := range keys {
		if array, ok := Find(value, key).([]any); ok && len(array) > 0 {
			return array
		}
	}
	return nil
}
