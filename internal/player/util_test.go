package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "simple flags",
			input:    "--fullscreen --mute=yes",
			expected: []string{"--fullscreen", "--mute=yes"},
		},
		{
			name:     "quoted value with spaces",
			input:    `--title="My Lesson" --volume=50`,
			expected: []string{"--title=My Lesson", "--volume=50"},
		},
		{
			name:     "single quotes",
			input:    "--ytdl-raw-options='format=best'",
			expected: []string{"--ytdl-raw-options=format=best"},
		},
		{
			name:     "extra whitespace",
			input:    "  --a   --b  ",
			expected: []string{"--a", "--b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseArgs(tt.input))
		})
	}
}
