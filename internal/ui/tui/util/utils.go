package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateString cuts a string to fit within maxWidth visual width
func TruncateString(s string, maxWidth int) string {
	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		// Check if adding this rune would exceed maxWidth
		if width+charWidth > maxWidth-3 { // Reserve space for "..."
			return s[:i] + "..."
		}
		width += charWidth
	}
	return s // Return as is if it fits
}

// PadString pads a string with spaces to an exact visual width, truncating
// first if it is too long
func PadString(s string, width int) string {
	s = TruncateString(s, width)
	visual := 0
	for _, r := range s {
		visual += runewidth.RuneWidth(r)
	}
	if visual < width {
		return s + strings.Repeat(" ", width-visual)
	}
	return s
}

// FormatClock formats a number of seconds as m:ss or h:mm:ss
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatProgressBar renders a fixed-width textual progress bar
func FormatProgressBar(percent, width int) string {
	if width < 2 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
