package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-dataset/pkg/config"
	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/output"
	"github.com/Sriram-PR/md-dataset/pkg/process"
	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// Result summarises a completed build.
type Result struct {
	RunID        string
	Documents    int
	Records      int
	Tokens       int // 0 unless token counting is enabled
	Summaries    []models.DocumentSummary
	ManifestPath string // Empty when no manifest was written
	Duration     time.Duration
}

// Pipeline turns an input file or directory into a dataset file.
// A Pipeline is sequential; documents are read, assembled and flushed one at a time.
type Pipeline struct {
	appCfg *config.AppConfig
	log    *logrus.Entry
}

// NewPipeline creates a pipeline. appCfg should already be validated.
func NewPipeline(appCfg *config.AppConfig, log *logrus.Entry) *Pipeline {
	return &Pipeline{
		appCfg: appCfg,
		log:    log.WithField("component", "pipeline"),
	}
}

// Run builds the dataset at outputPath from inputPath. The output file is
// truncated first. The first read, decode or write error aborts the run and
// is returned; ctx is checked between documents.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	startTime := time.Now()
	result := &Result{RunID: uuid.New().String()}
	log := p.log.WithField("run_id", result.RunID)

	paths, root, folder, err := p.resolveInput(inputPath)
	if err != nil {
		return nil, err
	}
	opts, err := OptionsFromConfig(p.appCfg, folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrConfigValidation, err)
	}
	p.prepareTokenizer(opts, log)

	log.Infof("Building dataset from %s (%d documents, folder=%t, path_mode=%s)",
		inputPath, len(paths), folder, opts.PathMode)
	if len(paths) == 0 {
		log.Warnf("No documents with extensions %v found under %s", config.GetEffectiveExtensions(*p.appCfg), inputPath)
	}

	writer, err := output.OpenRecordWriter(outputPath, log)
	if err != nil {
		return nil, err
	}

	runErr := p.writeDocuments(ctx, paths, root, opts, writer, result, log)
	if closeErr := writer.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		log.WithField("error_type", utils.CategorizeError(runErr)).Errorf("Build failed: %v", runErr)
		return result, runErr
	}

	result.Duration = time.Since(startTime)

	if p.appCfg.EnableManifest {
		manifestPath := output.ManifestPath(outputPath, p.appCfg.ManifestFilename)
		manifest := p.buildManifest(result, inputPath, outputPath, opts, startTime)
		if err := output.WriteManifest(manifestPath, manifest); err != nil {
			return result, err
		}
		result.ManifestPath = manifestPath
		log.Infof("Manifest written to %s", manifestPath)
	}

	p.logSummary(result, log)
	return result, nil
}

// resolveInput lists the documents to process and decides the variant.
func (p *Pipeline) resolveInput(inputPath string) (paths []string, root string, folder bool, err error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: stat input '%s': %w", utils.ErrFilesystem, inputPath, err)
	}

	folder = p.appCfg.IsFolderMode(info.IsDir())
	if !info.IsDir() {
		return []string{inputPath}, "", folder, nil
	}
	if !folder {
		return nil, "", false, fmt.Errorf("%w: mode 'single' needs a file input, '%s' is a directory",
			utils.ErrConfigValidation, inputPath)
	}

	excludes, err := utils.CompileRegexPatterns(p.appCfg.ExcludePatterns)
	if err != nil {
		return nil, "", false, err
	}
	paths, err = FindDocuments(inputPath, config.GetEffectiveExtensions(*p.appCfg), excludes)
	if err != nil {
		return nil, "", false, err
	}
	return paths, inputPath, true, nil
}

// prepareTokenizer initialises the codec when counting or splitting needs it.
func (p *Pipeline) prepareTokenizer(opts Options, log *logrus.Entry) {
	if !p.appCfg.EnableTokenCounting && !opts.Split.Enabled() {
		return
	}
	encoding := p.appCfg.TokenizerEncoding
	if encoding == "" {
		encoding = process.DefaultEncoding
	}
	if process.ActiveEncoding() == encoding {
		return
	}
	if err := process.InitTokenizer(encoding); err != nil {
		log.Warnf("Tokenizer unavailable, using length estimate: %v", err)
	}
}

func (p *Pipeline) writeDocuments(ctx context.Context, paths []string, root string, opts Options,
	writer *output.RecordWriter, result *Result, log *logrus.Entry) error {

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := LoadDocument(path, root, p.appCfg.StripFrontMatter)
		if err != nil {
			return err
		}
		assembly, err := Assemble(doc, opts)
		if err != nil {
			return err
		}

		before := writer.Written()
		tokens := 0
		for _, rec := range assembly.Records {
			if err := writer.Write(rec); err != nil {
				return err
			}
			if p.appCfg.EnableTokenCounting {
				tokens += process.CountTokens(rec.Prompt) + process.CountTokens(rec.Completion)
			}
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		written := writer.Written() - before

		result.Documents++
		result.Records += written
		result.Tokens += tokens
		result.Summaries = append(result.Summaries, models.DocumentSummary{
			ID:          doc.ID,
			Path:        doc.RelPath,
			Title:       doc.Title(),
			ContentHash: doc.ContentHash,
			Headings:    len(assembly.Headings),
			Records:     written,
			Tokens:      tokens,
		})
		log.WithFields(logrus.Fields{
			"document": doc.RelPath,
			"headings": len(assembly.Headings),
			"records":  written,
		}).Debug("Document processed")
	}
	return nil
}

// Preview assembles a single document without writing anything, using the
// single-document defaults unless the config forces folder behaviour.
func (p *Pipeline) Preview(path string) (*Document, *Assembly, error) {
	folder := p.appCfg.IsFolderMode(false)
	opts, err := OptionsFromConfig(p.appCfg, folder)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", utils.ErrConfigValidation, err)
	}
	p.prepareTokenizer(opts, p.log)

	doc, err := LoadDocument(path, "", p.appCfg.StripFrontMatter)
	if err != nil {
		return nil, nil, err
	}
	assembly, err := Assemble(doc, opts)
	if err != nil {
		return nil, nil, err
	}
	return doc, assembly, nil
}

func (p *Pipeline) buildManifest(result *Result, inputPath, outputPath string, opts Options, start time.Time) *models.DatasetManifest {
	absInput, _ := filepath.Abs(inputPath)
	absOutput, _ := filepath.Abs(outputPath)
	return &models.DatasetManifest{
		RunID:          result.RunID,
		InputPath:      absInput,
		OutputPath:     absOutput,
		BuildStartTime: start,
		BuildEndTime:   start.Add(result.Duration),
		TotalDocuments: result.Documents,
		TotalRecords:   result.Records,
		TotalTokens:    result.Tokens,
		Settings: map[string]string{
			"with_document_prefix":   strconv.FormatBool(opts.WithDocumentPrefix),
			"include_whole_document": strconv.FormatBool(opts.IncludeWholeDocument),
			"path_mode":              string(opts.PathMode),
			"path_separator":         opts.Separator,
			"strip_front_matter":     strconv.FormatBool(p.appCfg.StripFrontMatter),
			"max_completion_tokens":  strconv.Itoa(opts.Split.MaxTokens),
		},
		Documents: result.Summaries,
	}
}

// logSummary logs the totals of a finished run
func (p *Pipeline) logSummary(result *Result, log *logrus.Entry) {
	log.Info("============================================")
	log.Infof("Build completed in %v", result.Duration)
	log.Infof("Documents: %d, Records: %d", result.Documents, result.Records)
	if p.appCfg.EnableTokenCounting {
		log.Infof("Tokens: %d (%s)", result.Tokens, p.appCfg.TokenizerEncoding)
	}
	log.Info("============================================")
}
