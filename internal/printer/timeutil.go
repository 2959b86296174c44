package printer

import (
	"fmt"
	"time"
)

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// Percent returns the part with its share of the total.
// Examples: "3 (30%)", "0 (0%)".
func Percent(part, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d (0%%)", part)
	}
	return fmt.Sprintf("%d (%d%%)", part, part*100/total)
}
