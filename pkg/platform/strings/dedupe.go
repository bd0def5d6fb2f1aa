// Package strings provides small string-slice helpers shared across
// contexts.
package strings

import "strings"

// DedupeAndTrim removes duplicates and blanks from a slice, trimming
// whitespace from each element. The first occurrence keeps its
// position; tag reconciliation relies on that ordering.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
