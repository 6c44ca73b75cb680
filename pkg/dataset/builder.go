package dataset

import (
	"fmt"
	"strings"

	"github.com/Sriram-PR/md-dataset/pkg/config"
	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/process"
)

// Options controls how a document becomes records.
type Options struct {
	WithDocumentPrefix   bool // Prepend the document ID as the first path segment
	IncludeWholeDocument bool // Emit a whole-document record before the section records
	PathMode             process.PathMode
	Separator            string
	Split                process.SplitConfig
}

// SingleDocumentOptions are the defaults for a single input file.
func SingleDocumentOptions() Options {
	return Options{PathMode: process.PathModeFlat, Separator: config.DefaultPathSeparator}
}

// FolderOptions are the defaults for a directory of documents.
func FolderOptions() Options {
	opts := SingleDocumentOptions()
	opts.WithDocumentPrefix = true
	opts.IncludeWholeDocument = true
	return opts
}

// OptionsFromConfig resolves assembly options for the given input kind.
func OptionsFromConfig(appCfg *config.AppConfig, folder bool) (Options, error) {
	mode, err := process.ParsePathMode(appCfg.PathMode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		WithDocumentPrefix:   config.GetEffectiveWithDocumentPrefix(*appCfg, folder),
		IncludeWholeDocument: config.GetEffectiveIncludeWholeDocument(*appCfg, folder),
		PathMode:             mode,
		Separator:            config.GetEffectivePathSeparator(*appCfg),
		Split: process.SplitConfig{
			MaxTokens:     appCfg.MaxCompletionTokens,
			OverlapTokens: appCfg.CompletionOverlapTokens,
		},
	}, nil
}

// Assembly is the parse of one document.
type Assembly struct {
	Headings []process.Heading // Sentinel excluded
	Sections []process.Section
	Records  []models.Record
}

// Assemble extracts headings, segments the document and builds its records.
//
// Records come out in this order: the whole-document record (when enabled and
// the text is not blank), then one record per non-empty section in scan order.
// A section whose completion is split yields consecutive "(part i/n)" records.
func Assemble(doc *Document, opts Options) (*Assembly, error) {
	sep := opts.Separator
	if sep == "" {
		sep = config.DefaultPathSeparator
	}

	headings := process.ExtractHeadings(doc.Lines)
	sections := process.Segment(doc.Lines, headings, opts.PathMode)

	records := make([]models.Record, 0, len(sections)+1)
	if opts.IncludeWholeDocument {
		if whole := process.TrimText(doc.Text); whole != "" {
			records = append(records, models.Record{Prompt: doc.ID, Completion: whole})
		}
	}

	for _, section := range sections {
		segments := section.Path
		if opts.WithDocumentPrefix {
			segments = append([]string{doc.ID}, segments...)
		}
		prompt := strings.Join(segments, sep)

		parts, err := process.SplitCompletion(section.Body, opts.Split)
		if err != nil {
			return nil, fmt.Errorf("split section '%s' of '%s': %w", prompt, doc.Path, err)
		}
		for i, part := range parts {
			records = append(records, models.Record{
				Prompt:     process.PartLabel(prompt, i, len(parts)),
				Completion: part,
			})
		}
	}

	return &Assembly{
		Headings: headings[:len(headings)-1],
		Sections: sections,
		Records:  records,
	}, nil
}
