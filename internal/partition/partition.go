// Package partition maps capture timestamps to the year-quarter buckets
// that group photo records and their blobs in object storage.
package partition

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// keyPattern matches partition keys as they appear in storage, e.g. "2025-q3".
// Matching is case-insensitive because the original store lowercased names.
var keyPattern = regexp.MustCompile(`(?i)^(\d{4})-q([1-4])$`)

// Quarter returns the calendar quarter (1-4) for a month.
func Quarter(month time.Month) int {
	return (int(month)-1)/3 + 1
}

// Resolve maps a capture timestamp to its partition key, e.g. "2025-q3".
// It is a pure function: the same timestamp always yields the same key.
func Resolve(takenAt time.Time) string {
	return fmt.Sprintf("%d-q%d", takenAt.Year(), Quarter(takenAt.Month()))
}

// Parse extracts (year, quarter) from a partition key. The second return
// is false for names outside the {year}-q{quarter} scheme, which lets
// callers skip unrelated prefixes in the same bucket.
func Parse(key string) (year, quarter int, ok bool) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	quarter, _ = strconv.Atoi(m[2])
	return year, quarter, true
}

// Label returns the human-readable month range for a quarter, used as the
// section heading in the gallery ("July - September").
func Label(quarter int) string {
	switch quarter {
	case 1:
		return "January - March"
	case 2:
		return "April - June"
	case 3:
		return "July - September"
	case 4:
		return "October - December"
	}
	return fmt.Sprintf("Q%d", quarter)
}
