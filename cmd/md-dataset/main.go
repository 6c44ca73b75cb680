package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-dataset/pkg/config"
	"github.com/Sriram-PR/md-dataset/pkg/dataset"
	"github.com/Sriram-PR/md-dataset/pkg/process"
	"github.com/Sriram-PR/md-dataset/pkg/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("md-dataset %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `md-dataset - Markdown to JSONL fine-tuning dataset converter

Usage:
  md-dataset <command> [options]

Commands:
  build       Convert a Markdown file or folder into a JSONL dataset
  inspect     Show how a single document is split into sections
  watch       Rebuild the dataset whenever the input changes
  validate    Validate configuration file
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'md-dataset <command> -h' for command-specific help.`)
}

// cliOptions holds the flags shared by build and watch. Empty values leave
// the config file (or environment) setting untouched.
type cliOptions struct {
	configPath       string
	input            string
	output           string
	mode             string
	pathMode         string
	logLevel         string
	manifest         bool
	stripFrontMatter bool
	countTokens      bool
	maxTokens        int
}

// registerFlags binds the shared options to a FlagSet
func (o *cliOptions) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path to YAML config file (optional)")
	fs.StringVar(&o.input, "input", "", "Markdown file or directory")
	fs.StringVar(&o.output, "output", "", "Destination JSONL file")
	fs.StringVar(&o.mode, "mode", "", "Input mode: auto, single or folder")
	fs.StringVar(&o.pathMode, "path-mode", "", "Section label mode: flat or ancestors")
	fs.StringVar(&o.logLevel, "loglevel", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&o.manifest, "manifest", false, "Write a YAML manifest next to the dataset")
	fs.BoolVar(&o.stripFrontMatter, "strip-front-matter", false, "Remove YAML/TOML front matter before segmenting")
	fs.BoolVar(&o.countTokens, "count-tokens", false, "Count completion tokens for the summary and manifest")
	fs.IntVar(&o.maxTokens, "max-tokens", 0, "Split completions longer than this many tokens (0 disables)")
}

// applyOverrides copies explicitly set flags onto the loaded config
func applyOverrides(appCfg *config.AppConfig, o cliOptions) {
	if o.input != "" {
		appCfg.InputPath = o.input
	}
	if o.output != "" {
		appCfg.OutputPath = o.output
	}
	if o.mode != "" {
		appCfg.Mode = o.mode
	}
	if o.pathMode != "" {
		appCfg.PathMode = o.pathMode
	}
	if o.logLevel != "" {
		appCfg.LogLevel = o.logLevel
	}
	if o.manifest {
		appCfg.EnableManifest = true
	}
	if o.stripFrontMatter {
		appCfg.StripFrontMatter = true
	}
	if o.countTokens {
		appCfg.EnableTokenCounting = true
	}
	if o.maxTokens > 0 {
		appCfg.MaxCompletionTokens = o.maxTokens
	}
}

// setupLogger creates a configured logrus.Logger writing to w.
func setupLogger(logLevelStr string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
		log.Debugf("Setting log level to: %s", level.String())
	}

	return log
}

// loadAndValidate loads config + env, applies flag overrides and validates.
// Warnings are returned for the caller to log once the logger exists.
func loadAndValidate(o cliOptions) (*config.AppConfig, []string, error) {
	appCfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	applyOverrides(appCfg, o)

	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return appCfg, warnings, nil
}

// prepare loads the config and builds a logger for build-like commands.
func prepare(o cliOptions, stderr io.Writer) (*config.AppConfig, *logrus.Logger, error) {
	appCfg, warnings, err := loadAndValidate(o)
	if err != nil {
		return nil, nil, err
	}
	if err := appCfg.ValidatePaths(); err != nil {
		return nil, nil, err
	}

	log := setupLogger(appCfg.LogLevel, stderr)
	for _, w := range warnings {
		log.Warn(w)
	}
	logAppConfig(appCfg, log)
	return appCfg, log, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
// A second signal, or a stalled shutdown, forces exit.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("PANIC in signal handler: %v", r)
			}
		}()
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// runBuild handles the build subcommand
func runBuild(args []string) {
	var opts cliOptions
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	opts.registerFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: md-dataset build [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  md-dataset build -input README.md -output readme.jsonl\n")
		fmt.Fprintf(os.Stderr, "  md-dataset build -input docs/ -output train.jsonl -manifest\n")
		fmt.Fprintf(os.Stderr, "  md-dataset build -config dataset.yaml\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signalContext(setupLogger("warn", os.Stderr))
	exitCode := doBuild(ctx, opts, os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// doBuild runs one dataset build and prints the run summary to stdout.
// Returns exit code (0 = success, 1 = error).
func doBuild(ctx context.Context, opts cliOptions, stdout, stderr io.Writer) int {
	appCfg, log, err := prepare(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	pipeline := dataset.NewPipeline(appCfg, logrus.NewEntry(log))
	result, err := pipeline.Run(ctx, appCfg.InputPath, appCfg.OutputPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Build cancelled; dataset is incomplete.")
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Processed %d markdown files.\n", result.Documents)
	fmt.Fprintf(stdout, "Generated %d prompt-completion pairs.\n", result.Records)
	return 0
}

// runInspect handles the inspect subcommand
func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	input := fs.String("input", "", "Markdown file to inspect (required)")
	pathMode := fs.String("path-mode", "", "Section label mode: flat or ancestors")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: md-dataset inspect -input FILE [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doInspect(cliOptions{configPath: *configFile, input: *input, pathMode: *pathMode}, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doInspect prints a document's headings, sections and heading diagnostics.
// Returns exit code (0 = success, 1 = error).
func doInspect(opts cliOptions, stdout, stderr io.Writer) int {
	if opts.input == "" {
		fmt.Fprintln(stderr, "Error: -input is required")
		return 1
	}

	appCfg, _, err := loadAndValidate(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	mode, err := process.ParsePathMode(appCfg.PathMode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	doc, err := dataset.LoadDocument(appCfg.InputPath, "", appCfg.StripFrontMatter)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	in := dataset.Inspect(doc, mode)
	sep := config.GetEffectivePathSeparator(*appCfg)

	fmt.Fprintf(stdout, "Document: %s (%s)\n", doc.ID, doc.Path)
	if title := doc.Title(); title != "" {
		fmt.Fprintf(stdout, "Title: %s\n", title)
	}

	fmt.Fprintf(stdout, "\nHeadings (%d):\n", len(in.Headings))
	for _, h := range in.Headings {
		fmt.Fprintf(stdout, "  %4d  H%d  %s\n", h.Position+1, h.Level, h.Title)
	}

	fmt.Fprintf(stdout, "\nSections (%d, path mode %s):\n", len(in.Sections), mode)
	for _, sec := range in.Sections {
		fmt.Fprintf(stdout, "  %4d  %s  [%d chars]\n", sec.Position+1, dataset.Label(sec.Path, sep), len(sec.Body))
	}

	if len(in.Diagnostics) == 0 {
		fmt.Fprintln(stdout, "\nNo diagnostics.")
		return 0
	}
	fmt.Fprintf(stdout, "\nDiagnostics (%d):\n", len(in.Diagnostics))
	for _, d := range in.Diagnostics {
		fmt.Fprintf(stdout, "  [%s] %s\n", d.Kind, d.Message)
	}
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: md-dataset validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, warnings, err := loadAndValidate(cliOptions{configPath: configPath})
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	if err := appCfg.ValidatePaths(); err != nil {
		fmt.Fprintf(stdout, "WARN: %v (pass -input/-output when building)\n", err)
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	var opts cliOptions
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	opts.registerFlags(fs)
	debounce := fs.Duration("debounce", 0, "Quiet period before rebuilding (default 500ms)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: md-dataset watch [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  md-dataset watch -input docs/ -output train.jsonl\n")
		fmt.Fprintf(os.Stderr, "  md-dataset watch -config dataset.yaml -debounce 2s\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(executeWatch(opts, *debounce))
}

// executeWatch runs the watcher until interrupted
func executeWatch(opts cliOptions, debounce time.Duration) int {
	appCfg, log, err := prepare(opts, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if debounce > 0 {
		appCfg.WatchDebounce = debounce
	}

	pipeline := dataset.NewPipeline(appCfg, logrus.NewEntry(log))
	watcher, err := watch.NewWatcher(appCfg, appCfg.InputPath, appCfg.OutputPath, pipeline, logrus.NewEntry(log))
	if err != nil {
		log.Errorf("Failed to create watcher: %v", err)
		return 1
	}

	ctx, stop := signalContext(log)
	defer stop()

	if err := watcher.Run(ctx); err != nil {
		log.Errorf("Watch error: %v", err)
		return 1
	}

	log.Info("Watch mode stopped")
	return 0
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Config: Input:%s, Output:%s, Mode:%s, PathMode:%s, Separator:%q",
		appCfg.InputPath, appCfg.OutputPath, appCfg.Mode, appCfg.PathMode, config.GetEffectivePathSeparator(*appCfg))
	log.Infof("Config: Extensions:%v, Excludes:%d, StripFrontMatter:%t",
		config.GetEffectiveExtensions(*appCfg), len(appCfg.ExcludePatterns), appCfg.StripFrontMatter)
	log.Infof("Config Tokens: Counting:%t, Encoding:%s, MaxCompletion:%d, Overlap:%d",
		appCfg.EnableTokenCounting, appCfg.TokenizerEncoding, appCfg.MaxCompletionTokens, appCfg.CompletionOverlapTokens)
	log.Infof("Config Manifest: Enabled:%t, Filename:'%s'",
		appCfg.EnableManifest, appCfg.ManifestFilename)
}
