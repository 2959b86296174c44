// Package kv parses KEY=VALUE specs given on the command line.
package kv

import (
	"fmt"
	"strings"
)

// KeyValidator returns true when the key is accepted.
type KeyValidator func(key string) bool

// ParseSpecs parses KEY=VALUE specs. Later specs override earlier ones and keys are trimmed.
func ParseSpecs(specs []string, valid KeyValidator) (map[string]string, error) {
	values := make(map[string]string, len(specs))

	for _, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			return nil, fmt.Errorf("spec cannot be empty")
		}

		key, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("spec %q must be KEY=VALUE", spec)
		}

		key = strings.TrimSpace(key)
		if key == "" || (valid != nil && !valid(key)) {
			return nil, fmt.Errorf("invalid key %q", key)
		}

		values[key] = strings.TrimSpace(value)
	}

	return values, nil
}

// Digits accepts keys made only of ASCII digits.
func Digits(key string) bool {
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return key != ""
}
