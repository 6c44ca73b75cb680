package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-dataset/pkg/process"
	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Mode
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", InputModeAuto:
		c.Mode = InputModeAuto
	case InputModeSingle:
		c.Mode = InputModeSingle
	case InputModeFolder:
		c.Mode = InputModeFolder
	default:
		return warnings, fmt.Errorf("%w: unknown mode %q (supported: auto, single, folder)", utils.ErrConfigValidation, c.Mode)
	}

	// PathMode
	mode, perr := process.ParsePathMode(c.PathMode)
	if perr != nil {
		return warnings, fmt.Errorf("%w: %v", utils.ErrConfigValidation, perr)
	}
	c.PathMode = string(mode)

	// PathSeparator
	if c.PathSeparator == "" {
		c.PathSeparator = DefaultPathSeparator
	}

	// Extensions
	c.Extensions = normalizeExtensions(c.Extensions)
	if len(c.Extensions) == 0 {
		c.Extensions = []string{DefaultExtension}
	}

	// ExcludePatterns
	if _, rerr := utils.CompileRegexPatterns(c.ExcludePatterns); rerr != nil {
		return warnings, rerr
	}

	// MaxCompletionTokens
	if c.MaxCompletionTokens < 0 {
		warnings = append(warnings, "max_completion_tokens cannot be negative, disabling completion splitting")
		c.MaxCompletionTokens = 0
	}

	// CompletionOverlapTokens
	if c.CompletionOverlapTokens < 0 {
		warnings = append(warnings, "completion_overlap_tokens cannot be negative, setting to 0")
		c.CompletionOverlapTokens = 0
	}
	if c.MaxCompletionTokens > 0 && c.CompletionOverlapTokens >= c.MaxCompletionTokens {
		warnings = append(warnings, fmt.Sprintf(
			"completion_overlap_tokens (%d) >= max_completion_tokens (%d), setting overlap to 0",
			c.CompletionOverlapTokens, c.MaxCompletionTokens))
		c.CompletionOverlapTokens = 0
	}

	// TokenizerEncoding
	c.TokenizerEncoding = strings.ToLower(strings.TrimSpace(c.TokenizerEncoding))
	if c.TokenizerEncoding == "" {
		c.TokenizerEncoding = DefaultTokenizerEncoding
	} else if !process.IsSupportedEncoding(c.TokenizerEncoding) {
		warnings = append(warnings, fmt.Sprintf("tokenizer_encoding '%s' is not supported (supported: %s), defaulting to '%s'",
			c.TokenizerEncoding, strings.Join(process.SupportedEncodings(), ", "), DefaultTokenizerEncoding))
		c.TokenizerEncoding = DefaultTokenizerEncoding
	}

	// StateDir
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}

	// WatchDebounce
	if c.WatchDebounce < 0 {
		warnings = append(warnings, fmt.Sprintf("watch_debounce cannot be negative, defaulting to %v", DefaultWatchDebounce))
		c.WatchDebounce = DefaultWatchDebounce
	} else if c.WatchDebounce == 0 {
		c.WatchDebounce = DefaultWatchDebounce
	}

	// LogLevel
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	} else if _, lerr := logrus.ParseLevel(c.LogLevel); lerr != nil {
		warnings = append(warnings, fmt.Sprintf("log_level '%s' is invalid, defaulting to '%s'", c.LogLevel, DefaultLogLevel))
		c.LogLevel = DefaultLogLevel
	}

	// Manifest filename
	if !c.EnableManifest && c.ManifestFilename != "" {
		warnings = append(warnings, "'manifest_filename' is set but 'enable_manifest' is false; no manifest will be written")
	}

	return warnings, nil
}

// ValidatePaths checks the fields a build cannot run without.
func (c *AppConfig) ValidatePaths() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("%w: input path is required", utils.ErrConfigValidation)
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("%w: output path is required", utils.ErrConfigValidation)
	}
	return nil
}

// normalizeExtensions lowercases extensions, adds the leading dot and drops
// empty entries and duplicates.
func normalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
