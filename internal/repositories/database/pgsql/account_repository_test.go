package pgsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePattern(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain term untouched", "Ahmad", "Ahmad"},
		{"percent escaped", "50% cashback", `50\% cashback`},
		{"underscore escaped", "main_safe", `main\_safe`},
		{"backslash escaped", `a\b`, `a\\b`},
		{"all wildcards", `%_\`, `\%\_\\`},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, escapeLikePattern(tc.input))
		})
	}
}
