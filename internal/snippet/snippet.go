// Package snippet cuts the context phrase shown around a match.
package snippet

import (
	"strings"
	"unicode/utf8"
)

// DefaultWindow is the number of characters kept on each side of a match.
const DefaultWindow = 60

const (
	leftMarker  = "... "
	rightMarker = " ..."
)

// Extract returns text[start:end] widened by window runes on each side and
// trimmed of surrounding whitespace. start and end are byte offsets. The
// snippet is prefixed with "... " when at least window runes precede the
// span and suffixed with " ..." when at least window runes follow it.
// A window <= 0 uses DefaultWindow.
func Extract(text string, start, end, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}
	start = clamp(start, 0, len(text))
	end = clamp(end, start, len(text))

	from, clippedLeft := back(text, start, window)
	to, clippedRight := forward(text, end, window)

	var b strings.Builder
	if clippedLeft {
		b.WriteString(leftMarker)
	}
	b.WriteString(strings.TrimSpace(text[from:to]))
	if clippedRight {
		b.WriteString(rightMarker)
	}
	return b.String()
}

// back steps n runes left of i. It reports whether n full runes were available.
func back(text string, i, n int) (int, bool) {
	for k := 0; k < n; k++ {
		if i == 0 {
			return 0, false
		}
		_, size := utf8.DecodeLastRuneInString(text[:i])
		i -= size
	}
	return i, true
}

// forward steps n runes right of i. It reports whether n full runes were available.
func forward(text string, i, n int) (int, bool) {
	for k := 0; k < n; k++ {
		if i == len(text) {
			return i, false
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
