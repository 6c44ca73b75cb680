package process

import (
	"strings"
	"unicode"
)

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitLines splits text on "\n" exactly. A trailing newline produces a
// trailing empty line, and empty text produces a single empty line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// IsTextSpace reports whether r is whitespace for trimming titles and
// completions: unicode.IsSpace plus the separators U+001C..U+001F.
func IsTextSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// TrimText removes leading and trailing IsTextSpace runes.
func TrimText(s string) string {
	return strings.TrimFunc(s, IsTextSpace)
}
