package common

import "strconv"

// AtoiDefault parses value as an int, returning def for empty or malformed
// input. Query parameters like limit and offset never hard-fail on junk.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
