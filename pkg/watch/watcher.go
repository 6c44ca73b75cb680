package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-dataset/pkg/config"
	"github.com/Sriram-PR/md-dataset/pkg/dataset"
	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/output"
	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// Builder runs one dataset build. *dataset.Pipeline satisfies it.
type Builder interface {
	Run(ctx context.Context, inputPath, outputPath string) (*dataset.Result, error)
}

// Watcher rebuilds a dataset whenever matching input files change.
// Builds run on the event loop goroutine, one at a time.
type Watcher struct {
	appCfg       *config.AppConfig
	inputPath    string
	outputPath   string
	builder      Builder
	log          *logrus.Entry
	stateManager *StateManager

	extensions map[string]bool
	excludes   []*regexp.Regexp
	ignored    map[string]bool // Files the build itself writes
	hashes     map[string]string

	fsw *fsnotify.Watcher

	// onBuild, when set, is called after every build attempt (tests)
	onBuild func(*dataset.Result, error)
}

// NewWatcher creates a watcher for inputPath (file or directory).
func NewWatcher(appCfg *config.AppConfig, inputPath, outputPath string, builder Builder, log *logrus.Entry) (*Watcher, error) {
	excludes, err := utils.CompileRegexPatterns(appCfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	exts := make(map[string]bool)
	for _, ext := range config.GetEffectiveExtensions(*appCfg) {
		exts[strings.ToLower(ext)] = true
	}

	ignored := map[string]bool{cleanAbs(outputPath): true}
	if appCfg.EnableManifest {
		ignored[cleanAbs(output.ManifestPath(outputPath, appCfg.ManifestFilename))] = true
	}

	return &Watcher{
		appCfg:       appCfg,
		inputPath:    inputPath,
		outputPath:   outputPath,
		builder:      builder,
		log:          log.WithField("component", "watch"),
		stateManager: NewStateManager(appCfg.StateDir),
		extensions:   exts,
		excludes:     excludes,
		ignored:      ignored,
		hashes:       make(map[string]string),
	}, nil
}

// Run builds once, then rebuilds after debounced changes until ctx is done.
// A failed build is logged and recorded; the watcher keeps running.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.stateManager.Load(); err != nil {
		w.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}
	w.logLastBuild()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	w.fsw = fsw
	defer fsw.Close()

	if err := w.addWatches(); err != nil {
		return err
	}

	w.seedHashes()
	w.build(ctx, "initial build")

	debounce := w.appCfg.WatchDebounce
	if debounce <= 0 {
		debounce = config.DefaultWatchDebounce
	}
	w.log.Infof("Watching %s for changes (debounce %v)", w.inputPath, debounce)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Watch mode shutting down...")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Stop()
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.build(ctx, "change detected")

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("File watcher error: %v", err)
		}
	}
}

// addWatches registers the input directory tree, or the parent directory of
// a single input file.
func (w *Watcher) addWatches() error {
	if !isDir(w.inputPath) {
		dir := filepath.Dir(w.inputPath)
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("%w: watch '%s': %w", utils.ErrFilesystem, dir, err)
		}
		return nil
	}
	return w.addTree(w.inputPath)
}

// addTree adds root and every non-excluded directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.relPath(path); rel != "." && utils.MatchesAny(rel+"/", w.excludes) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("%w: watch '%s': %w", utils.ErrFilesystem, path, err)
		}
		w.log.Debugf("Watching directory %s", path)
		return nil
	})
}

// handleEvent updates the watch set and reports whether the event should
// trigger a rebuild.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) && isDir(path) && isDir(w.inputPath) {
		if err := w.addTree(path); err != nil {
			w.log.Warnf("Failed to watch new directory %s: %v", path, err)
		}
		// Files created before the watch was added would otherwise be missed
		return true
	}

	if !w.isRelevantFile(path) {
		return false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.hashes, path)
		w.log.Debugf("Removed: %s", path)
		return true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		hash, err := utils.FileContentHash(path)
		if err != nil {
			// Vanished between event and read; the Remove event follows
			return false
		}
		if w.hashes[path] == hash {
			w.log.Debugf("Unchanged content, ignoring: %s", path)
			return false
		}
		w.hashes[path] = hash
		w.log.Debugf("Changed: %s", path)
		return true
	}
	return false
}

// isRelevantFile applies the input, extension and exclude filters.
func (w *Watcher) isRelevantFile(path string) bool {
	if w.ignored[cleanAbs(path)] {
		return false
	}
	if !isDir(w.inputPath) {
		return cleanAbs(path) == cleanAbs(w.inputPath)
	}
	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return !utils.MatchesAny(w.relPath(path), w.excludes)
}

// seedHashes records the current content of every input document so that
// editor saves without content changes do not trigger rebuilds.
func (w *Watcher) seedHashes() {
	paths := []string{w.inputPath}
	if isDir(w.inputPath) {
		found, err := dataset.FindDocuments(w.inputPath, config.GetEffectiveExtensions(*w.appCfg), w.excludes)
		if err != nil {
			w.log.Warnf("Could not list documents for change tracking: %v", err)
			return
		}
		paths = found
	}
	for _, path := range paths {
		if hash, err := utils.FileContentHash(path); err == nil {
			w.hashes[filepath.Clean(path)] = hash
		}
	}
}

// build runs the builder and records the outcome.
func (w *Watcher) build(ctx context.Context, reason string) {
	w.log.Infof("Rebuilding dataset (%s)", reason)
	result, err := w.builder.Run(ctx, w.inputPath, w.outputPath)

	switch {
	case err != nil && ctx.Err() != nil:
		w.log.Warnf("Build interrupted: %v", err)
	case err != nil:
		w.log.WithField("error_type", utils.CategorizeError(err)).Errorf("Build failed: %v", err)
		w.stateManager.RecordFailure(w.outputPath, err)
	default:
		w.log.Infof("Build succeeded: %d documents, %d records", result.Documents, result.Records)
		w.stateManager.RecordSuccess(w.outputPath, result.RunID, result.Documents, result.Records)
	}

	if ctx.Err() == nil {
		if saveErr := w.stateManager.Save(); saveErr != nil {
			w.log.Errorf("Failed to save watch state: %v", saveErr)
		}
	}
	if w.onBuild != nil {
		w.onBuild(result, err)
	}
}

// logLastBuild logs the persisted outcome of the previous build, if any
func (w *Watcher) logLastBuild() {
	state, ok := w.stateManager.GetBuildState(w.outputPath)
	if !ok {
		w.log.Infof("No previous build recorded for %s", w.outputPath)
		return
	}
	age := FormatInterval(time.Since(state.LastRunTime))
	if state.Status == models.BuildStatusFailure {
		w.log.Infof("Last build of %s %s ago: %s (%s)", w.outputPath, age, state.Status, state.ErrorMessage)
		return
	}
	w.log.Infof("Last build of %s %s ago: %s, %d documents, %d records",
		w.outputPath, age, state.Status, state.Documents, state.Records)
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.inputPath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func cleanAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
