package process

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// OutlineEntry is a heading as a CommonMark parser sees it.
type OutlineEntry struct {
	Level int
	Title string
	Line  int // Zero-based line of the heading text; -1 when the heading has no text
}

// Outline parses markdown with goldmark and returns its headings in document order.
func Outline(markdown []byte) []OutlineEntry {
	reader := text.NewReader(markdown)
	doc := goldmark.DefaultParser().Parse(reader)

	var entries []OutlineEntry
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		entry := OutlineEntry{Level: heading.Level, Line: -1}
		if lines := heading.Lines(); lines.Len() > 0 {
			entry.Line = bytes.Count(markdown[:lines.At(0).Start], []byte("\n"))
		}
		entry.Title = inlineText(heading, markdown)
		entries = append(entries, entry)
		return ast.WalkSkipChildren, nil
	})

	return entries
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// Diagnostic kinds reported by Lint.
const (
	DiagnosticNotCommonMark = "not-commonmark" // line matcher heading that CommonMark reads as text or code
	DiagnosticUnmatched     = "unmatched"      // CommonMark heading the line matcher does not see (setext)
)

// Diagnostic describes one disagreement between the line matcher and CommonMark.
type Diagnostic struct {
	Line    int // Zero-based
	Kind    string
	Message string
}

// Lint compares the line-matcher headings against a goldmark outline.
// Headings without title text are skipped on both sides because goldmark
// records no source position for them.
func Lint(lines []string, headings []Heading, outline []OutlineEntry) []Diagnostic {
	commonMark := make(map[int]OutlineEntry, len(outline))
	for _, e := range outline {
		if e.Line >= 0 {
			commonMark[e.Line] = e
		}
	}
	matched := make(map[int]bool, len(headings))

	var diags []Diagnostic
	for _, h := range headings {
		if h.IsSentinel() {
			continue
		}
		matched[h.Position] = true
		if h.Title == "" {
			continue
		}
		if _, ok := commonMark[h.Position]; !ok {
			diags = append(diags, Diagnostic{
				Line:    h.Position,
				Kind:    DiagnosticNotCommonMark,
				Message: fmt.Sprintf("line %d: %q is used as a level-%d heading but is not a CommonMark heading", h.Position+1, lineAt(lines, h.Position), h.Level),
			})
		}
	}

	for _, e := range outline {
		if e.Line < 0 || matched[e.Line] {
			continue
		}
		diags = append(diags, Diagnostic{
			Line:    e.Line,
			Kind:    DiagnosticUnmatched,
			Message: fmt.Sprintf("line %d: CommonMark heading %q (level %d) is treated as body text", e.Line+1, e.Title, e.Level),
		})
	}

	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Line < diags[j].Line
	})
	return diags
}

func lineAt(lines []string, idx int) string {
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}
