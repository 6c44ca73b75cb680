package process

import (
	"fmt"
	"strings"
)

// PathMode selects how a section's label path is built.
type PathMode string

const (
	// PathModeFlat labels each section with the titles of every heading seen
	// so far, in scan order, regardless of level. This reproduces the
	// established dataset format and is the default.
	PathModeFlat PathMode = "flat"
	// PathModeAncestors labels each section with its true ancestor chain:
	// shallower-or-equal headings close deeper ones.
	PathModeAncestors PathMode = "ancestors"
)

// ParsePathMode converts a config/flag value into a PathMode.
// An empty value selects PathModeFlat.
func ParsePathMode(s string) (PathMode, error) {
	switch PathMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PathModeFlat:
		return PathModeFlat, nil
	case PathModeAncestors:
		return PathModeAncestors, nil
	default:
		return "", fmt.Errorf("unknown path mode %q (supported: flat, ancestors)", s)
	}
}

// Section is the content span owned by one heading.
type Section struct {
	Path     []string // Label path from the document root to this heading, inclusive
	Body     string   // Trimmed text between the heading line and its closing heading
	Level    int
	Position int // Line index of the owning heading
}

// Segment turns the heading list from ExtractHeadings into sections.
//
// A section spans from the line after its heading up to (not including) the
// first later heading whose level is <= its own; the sentinel closes anything
// still open. Parent sections therefore contain their children's raw text,
// heading lines included. Sections whose trimmed body is empty are dropped.
func Segment(lines []string, headings []Heading, mode PathMode) []Section {
	if len(headings) == 0 {
		return nil
	}
	// Tolerate callers that pass headings without the sentinel.
	if !headings[len(headings)-1].IsSentinel() {
		headings = append(append([]Heading(nil), headings...), Heading{Level: 0, Position: len(lines)})
	}

	sections := make([]Section, 0, len(headings)-1)
	var ancestors []Heading

	for i := 0; i < len(headings)-1; i++ {
		current := headings[i]

		end := len(lines)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].Level <= current.Level {
				end = headings[j].Position
				break
			}
		}

		var path []string
		switch mode {
		case PathModeAncestors:
			for len(ancestors) > 0 && ancestors[len(ancestors)-1].Level >= current.Level {
				ancestors = ancestors[:len(ancestors)-1]
			}
			ancestors = append(ancestors, current)
			path = titles(ancestors)
		default:
			path = titles(headings[:i+1])
		}

		body := sectionBody(lines, current.Position+1, end)
		if body == "" {
			continue
		}
		sections = append(sections, Section{
			Path:     path,
			Body:     body,
			Level:    current.Level,
			Position: current.Position,
		})
	}

	return sections
}

// sectionBody joins lines[start:end] and trims surrounding whitespace.
func sectionBody(lines []string, start, end int) string {
	if start > len(lines) {
		start = len(lines)
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return TrimText(strings.Join(lines[start:end], "\n"))
}

func titles(headings []Heading) []string {
	out := make([]string, len(headings))
	for i, h := range headings {
		out[i] = h.Title
	}
	return out
}
