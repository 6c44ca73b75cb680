package dataset

import (
	"strings"

	"github.com/Sriram-PR/md-dataset/pkg/process"
)

// Inspection is a diagnostic view of how a document is segmented.
type Inspection struct {
	Headings    []process.Heading // Sentinel excluded
	Sections    []process.Section
	Outline     []process.OutlineEntry // CommonMark headings
	Diagnostics []process.Diagnostic
}

// Inspect segments doc and compares the line matcher against a CommonMark
// parse. Diagnostics never change the records a build produces.
func Inspect(doc *Document, mode process.PathMode) *Inspection {
	headings := process.ExtractHeadings(doc.Lines)
	outline := process.Outline([]byte(doc.Text))

	return &Inspection{
		Headings:    headings[:len(headings)-1],
		Sections:    process.Segment(doc.Lines, headings, mode),
		Outline:     outline,
		Diagnostics: process.Lint(doc.Lines, headings, outline),
	}
}

// Label joins a section path for display.
func Label(path []string, separator string) string {
	return strings.Join(path, separator)
}
