package core

import (
	"strings"
	"time"
)

// NowFunc returns the current time; it is swapped in tests.
var NowFunc = time.Now

// Now returns the current UTC time, truncated to microseconds (the precision postgres stores).
func Now() time.Time {
	return NowFunc().UTC().Truncate(time.Microsecond)
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// IsBlank reports whether s is empty once trimmed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
