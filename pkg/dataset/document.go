package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Sriram-PR/md-dataset/pkg/process"
	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// Document is one loaded input file.
type Document struct {
	Path        string                 // As discovered
	RelPath     string                 // Slash-separated, relative to the input root
	ID          string                 // Base name without its final extension
	Text        string                 // Normalised text, front matter removed when stripping
	Lines       []string               // Text split on "\n"
	FrontMatter map[string]interface{} // nil unless front matter was stripped
	ContentHash string                 // SHA-256 of Text
}

// DocumentID derives the document identifier from a path: the base name with
// its final extension removed. Names that are all extension (".md") keep the
// full base name.
func DocumentID(path string) string {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	if id == "" {
		return base
	}
	return id
}

// LoadDocument reads path as UTF-8, normalises line endings and optionally
// strips a leading front-matter block. root is used for RelPath; an empty root
// makes RelPath the base name.
func LoadDocument(path, root string, stripFrontMatter bool) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read '%s': %w", utils.ErrFilesystem, path, err)
	}
	return ParseDocument(path, root, data, stripFrontMatter)
}

// ParseDocument builds a Document from raw bytes already in memory.
func ParseDocument(path, root string, data []byte, stripFrontMatter bool) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: '%s' is not valid UTF-8", utils.ErrEncoding, path)
	}

	text := process.NormalizeNewlines(string(data))

	var meta map[string]interface{}
	if stripFrontMatter {
		stripped, fm, err := process.StripFrontMatter(text)
		if err != nil {
			return nil, fmt.Errorf("%w: '%s': %w", utils.ErrParsing, path, err)
		}
		text, meta = stripped, fm
	}

	rel := filepath.Base(path)
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil && r != "." {
			rel = r
		}
	}

	return &Document{
		Path:        path,
		RelPath:     filepath.ToSlash(rel),
		ID:          DocumentID(path),
		Text:        text,
		Lines:       process.SplitLines(text),
		FrontMatter: meta,
		ContentHash: utils.ContentHash(text),
	}, nil
}

// Title returns the front-matter title, if any.
func (d *Document) Title() string {
	return process.FrontMatterTitle(d.FrontMatter)
}
