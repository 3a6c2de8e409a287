// Package strings holds small slice-of-string helpers shared by the
// configuration layer.
package strings

import "strings"

// DedupeAndTrimLower trims, lowercases, and deduplicates values, dropping
// empties and keeping first-seen order. TLD preload lists arrive as a
// comma-separated environment variable, so stray spacing or casing must not
// yield duplicate entries.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
