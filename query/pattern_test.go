package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern(t *testing.T) {
	tests := []struct {
		name string
		in   string
		mode PatternMode
		want string
	}{
		{"gaps", "foo", PatternGaps, "%f%o%o%"},
		{"substring", "foo", PatternSubstring, "%foo%"},
		{"gaps escapes wildcards", "a_b%", PatternGaps, `%a%\_%b%\%%`},
		{"substring escapes backslash", `c:\tmp`, PatternSubstring, `%c:\\tmp%`},
		{"combining mark composes", "e\u0301", PatternGaps, "%\u00e9%"},
		{"multibyte rune is one position", "日本", PatternGaps, "%日%本%"},
		{"empty gaps", "", PatternGaps, "%"},
		{"empty substring", "", PatternSubstring, "%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pattern(tt.in, tt.mode))
		})
	}
}

func TestParsePatternMode(t *testing.T) {
	m, err := ParsePatternMode("Substring")
	require.NoError(t, err)
	assert.Equal(t, PatternSubstring, m)

	m, err = ParsePatternMode("")
	require.NoError(t, err)
	assert.Equal(t, PatternGaps, m)

	_, err = ParsePatternMode("fuzzy")
	assert.Error(t, err)
}
