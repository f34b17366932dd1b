package parliament

import (
	"strings"
	"time"
)

// NormalizePostcode strips all whitespace and uppercases. Returns "" for
// an effectively empty postcode.
func NormalizePostcode(postcode string) string {
	var b strings.Builder
	for _, ch := range postcode {
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			continue
		}
		b.WriteRune(ch)
	}
	return strings.ToUpper(b.String())
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// clampLimit coerces an optional limit into [min, max], defaulting when
// absent or non-positive.
func clampLimit(v *int, def, min, max int) int {
	if v == nil || *v <= 0 {
		return def
	}
	n := *v
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// parseDay extracts a calendar date from the first 10 characters of an
// ISO-8601 string. Returns false when the prefix is not a date.
func parseDay(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > 10 {
		trimmed = trimmed[:10]
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// filterVotes applies the optional date-range and bill filters and caps
// the result. Records without a parseable date pass the date filters.
func filterVotes(entries []VoteRecord, fromDate, toDate, billID string, limit int) []VoteRecord {
	from, hasFrom := parseDay(fromDate)
	to, hasTo := parseDay(toDate)
	billFilter := strings.ToLower(strings.TrimSpace(billID))

	filtered := make([]VoteRecord, 0, len(entries))
	for _, entry := range entries {
		if billFilter != "" {
			matches := strings.ToLower(entry.DivisionID) == billFilter ||
				strings.Contains(strings.ToLower(entry.Title), billFilter)
			if !matches {
				continue
			}
		}
		if day, ok := parseDay(entry.Date); ok {
			if hasFrom && day.Before(from) {
				continue
			}
			if hasTo && day.After(to) {
				continue
			}
		}
		filtered = append(filtered, entry)
	}

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// sanitizeText trims and drops empty optional strings.
func sanitizeText(value string) string {
	return strings.TrimSpace(value)
}
