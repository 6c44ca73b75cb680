package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrFilesystem       = errors.New("filesystem error")          // Wraps os errors (document unreadable, walk failure)
	ErrEncoding         = errors.New("invalid UTF-8 text")        // Document is not valid UTF-8
	ErrParsing          = errors.New("parsing error")             // Wraps front matter / YAML parse errors
	ErrOutput           = errors.New("output error")              // Output file unwritable
	ErrConfigValidation = errors.New("configuration validation error")
)

// WrapErrorf prefixes err with formatted context, keeping it unwrappable.
// Returns nil when err is nil.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrOutput):
		if errors.Is(err, os.ErrPermission) {
			return "Output_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Output_NotExist"
		}
		return "Output_Other"
	case errors.Is(err, ErrEncoding):
		return "Content_Encoding"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "front matter") {
			return "Content_FrontMatter"
		}
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Unwrapped os errors still get a useful category
	if errors.Is(err, os.ErrNotExist) {
		return "Filesystem_NotExist"
	}
	if errors.Is(err, os.ErrPermission) {
		return "Filesystem_Permission"
	}

	return "Unknown"
}
