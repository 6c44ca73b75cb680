package config

import (
	"time"

	"github.com/Sriram-PR/md-dataset/pkg/process"
)

// Input modes accepted by the "mode" key and the -mode flag
const (
	InputModeAuto   = "auto"
	InputModeSingle = "single"
	InputModeFolder = "folder"
)

// Defaults applied by Validate
const (
	DefaultExtension         = ".md"
	DefaultPathSeparator     = " - "
	DefaultTokenizerEncoding = process.DefaultEncoding
	DefaultStateDir          = "./md_dataset_state"
	DefaultWatchDebounce     = 500 * time.Millisecond
	DefaultLogLevel          = "info"
)

// AppConfig holds the application configuration
type AppConfig struct {
	InputPath       string   `yaml:"input_path,omitempty"`
	OutputPath      string   `yaml:"output_path,omitempty"`
	Mode            string   `yaml:"mode,omitempty"`             // auto, single or folder
	Extensions      []string `yaml:"extensions,omitempty"`       // File extensions picked up in folder mode
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty"` // Regex patterns matched against slash-separated relative paths

	// Tri-state: nil means "use the default for the input kind"
	WithDocumentPrefix   *bool `yaml:"with_document_prefix,omitempty"`
	IncludeWholeDocument *bool `yaml:"include_whole_document,omitempty"`

	PathMode      string `yaml:"path_mode,omitempty"` // flat or ancestors
	PathSeparator string `yaml:"path_separator,omitempty"`

	StripFrontMatter        bool `yaml:"strip_front_matter,omitempty"`
	MaxCompletionTokens     int  `yaml:"max_completion_tokens,omitempty"` // 0 disables splitting
	CompletionOverlapTokens int  `yaml:"completion_overlap_tokens,omitempty"`

	EnableTokenCounting bool   `yaml:"enable_token_counting,omitempty"`
	TokenizerEncoding   string `yaml:"tokenizer_encoding,omitempty"`

	EnableManifest   bool   `yaml:"enable_manifest,omitempty"`
	ManifestFilename string `yaml:"manifest_filename,omitempty"` // Empty derives "<output>.manifest.yaml"

	StateDir      string        `yaml:"state_dir,omitempty"`
	WatchDebounce time.Duration `yaml:"watch_debounce,omitempty"`
	LogLevel      string        `yaml:"log_level,omitempty"`
}

// IsFolderMode resolves the configured mode against the input kind.
// In auto mode a directory input selects the folder variant.
func (c *AppConfig) IsFolderMode(inputIsDir bool) bool {
	switch c.Mode {
	case InputModeSingle:
		return false
	case InputModeFolder:
		return true
	default:
		return inputIsDir
	}
}

// GetEffectiveWithDocumentPrefix determines whether prompts carry the document
// identifier as a leading segment. Defaults on in folder mode.
func GetEffectiveWithDocumentPrefix(appCfg AppConfig, folder bool) bool {
	if appCfg.WithDocumentPrefix != nil {
		return *appCfg.WithDocumentPrefix
	}
	return folder
}

// GetEffectiveIncludeWholeDocument determines whether a whole-document record
// precedes each document's section records. Defaults on in folder mode.
func GetEffectiveIncludeWholeDocument(appCfg AppConfig, folder bool) bool {
	if appCfg.IncludeWholeDocument != nil {
		return *appCfg.IncludeWholeDocument
	}
	return folder
}

// GetEffectiveExtensions returns the extensions to discover, defaulting to ".md".
func GetEffectiveExtensions(appCfg AppConfig) []string {
	if len(appCfg.Extensions) > 0 {
		return appCfg.Extensions
	}
	return []string{DefaultExtension}
}

// GetEffectivePathSeparator returns the prompt segment separator.
func GetEffectivePathSeparator(appCfg AppConfig) string {
	if appCfg.PathSeparator != "" {
		return appCfg.PathSeparator
	}
	return DefaultPathSeparator
}
