package process

import (
	"regexp"
	"strings"
)

// MaxHeadingLevel is the deepest heading level the matcher recognises.
// A run of more markers still matches at this level; the surplus markers
// become part of the title ("####### x" is level 6 with title "# x").
const MaxHeadingLevel = 6

// Heading is one heading marker found in a document.
type Heading struct {
	Level    int    // 1..MaxHeadingLevel; 0 only for the end-of-document sentinel
	Title    string // Trimmed title text, may be empty
	Position int    // Zero-based line index
}

// IsSentinel reports whether h is the end-of-document marker appended by ExtractHeadings.
func (h Heading) IsSentinel() bool {
	return h.Level == 0
}

// headingLineRegex matches a heading line once leading whitespace is removed.
// Whitespace after the markers is optional, so "#tag" is a heading titled "tag".
var headingLineRegex = regexp.MustCompile(`^(#{1,6})\s*(.*)$`)

// MatchHeading checks a single line for a heading marker.
// The returned Heading has no Position; callers fill it in.
func MatchHeading(line string) (Heading, bool) {
	trimmed := strings.TrimLeftFunc(line, IsTextSpace)
	match := headingLineRegex.FindStringSubmatch(trimmed)
	if match == nil {
		return Heading{}, false
	}
	return Heading{
		Level: len(match[1]),
		Title: TrimText(match[2]),
	}, true
}

// ExtractHeadings scans lines top to bottom and returns every heading in
// document order, followed by a sentinel heading (level 0, position len(lines))
// that closes the last section.
func ExtractHeadings(lines []string) []Heading {
	headings := make([]Heading, 0, 8)
	for idx, line := range lines {
		if h, ok := MatchHeading(line); ok {
			h.Position = idx
			headings = append(headings, h)
		}
	}
	return append(headings, Heading{Level: 0, Position: len(lines)})
}
