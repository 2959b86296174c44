package model

import "strings"

// MinCleanCodeLength is the minimum amount of digits a code needs to be searched on the CRM.
// Codes with this length or shorter are rejected.
const MinCleanCodeLength = 5

// CleanCode strips every non digit character from a code.
func CleanCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsSearchableCode returns true when the cleaned code is long enough to be looked up.
func IsSearchableCode(cleanCode string) bool {
	return len(cleanCode) > MinCleanCodeLength
}

// ParseCodes splits a block of text into codes, one per line. Lines are trimmed and blank
// lines are dropped, order is kept.
func ParseCodes(text string) []string {
	var codes []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		codes = append(codes, line)
	}
	return codes
}
