package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "clean list passes through",
			input:    []string{"uk", "com.br", "jp"},
			expected: []string{"uk", "com.br", "jp"},
		},
		{
			name:     "case folds before deduplicating",
			input:    []string{"UK", "uk", "Uk"},
			expected: []string{"uk"},
		},
		{
			name:     "trims padding from a comma-split env value",
			input:    []string{" uk", "com.br ", "  jp  "},
			expected: []string{"uk", "com.br", "jp"},
		},
		{
			name:     "drops empties left by trailing commas",
			input:    []string{"uk", "", "  ", "jp"},
			expected: []string{"uk", "jp"},
		},
		{
			name:     "first occurrence wins the position",
			input:    []string{"jp", "UK", "jp", "uk", "de"},
			expected: []string{"jp", "uk", "de"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
