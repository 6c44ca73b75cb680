package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MDDATASET_"

// Load builds an AppConfig from, in increasing priority, the YAML file at path
// (skipped when path is empty) and MDDATASET_* environment variables.
// A .env file in the working directory is loaded first if present.
// Validate is not called.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %w", utils.ErrConfigValidation, err)
	}

	cfg := &AppConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read config '%s': %w", utils.ErrFilesystem, path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config '%s': %w", utils.ErrParsing, path, err)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from environment variables looked up through
// lookup. Unset variables leave fields untouched.
func ApplyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	strVars := map[string]*string{
		"INPUT":              &cfg.InputPath,
		"OUTPUT":             &cfg.OutputPath,
		"MODE":               &cfg.Mode,
		"PATH_MODE":          &cfg.PathMode,
		"PATH_SEPARATOR":     &cfg.PathSeparator,
		"TOKENIZER_ENCODING": &cfg.TokenizerEncoding,
		"MANIFEST_FILENAME":  &cfg.ManifestFilename,
		"STATE_DIR":          &cfg.StateDir,
		"LOG_LEVEL":          &cfg.LogLevel,
	}
	for name, field := range strVars {
		if v, ok := get(name); ok && v != "" {
			*field = v
		}
	}

	if v, ok := get("EXTENSIONS"); ok && v != "" {
		cfg.Extensions = strings.Split(v, ",")
	}

	boolVars := map[string]*bool{
		"STRIP_FRONT_MATTER":    &cfg.StripFrontMatter,
		"ENABLE_TOKEN_COUNTING": &cfg.EnableTokenCounting,
		"ENABLE_MANIFEST":       &cfg.EnableManifest,
	}
	for name, field := range boolVars {
		if v, ok := get(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return envError(name, v, err)
			}
			*field = b
		}
	}

	triVars := map[string]**bool{
		"WITH_DOCUMENT_PREFIX":   &cfg.WithDocumentPrefix,
		"INCLUDE_WHOLE_DOCUMENT": &cfg.IncludeWholeDocument,
	}
	for name, field := range triVars {
		if v, ok := get(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return envError(name, v, err)
			}
			*field = &b
		}
	}

	intVars := map[string]*int{
		"MAX_COMPLETION_TOKENS":     &cfg.MaxCompletionTokens,
		"COMPLETION_OVERLAP_TOKENS": &cfg.CompletionOverlapTokens,
	}
	for name, field := range intVars {
		if v, ok := get(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return envError(name, v, err)
			}
			*field = n
		}
	}

	if v, ok := get("WATCH_DEBOUNCE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("WATCH_DEBOUNCE", v, err)
		}
		cfg.WatchDebounce = d
	}

	return nil
}

func envError(name, value string, err error) error {
	return fmt.Errorf("%w: invalid %s%s=%q: %w", utils.ErrConfigValidation, EnvPrefix, name, value, err)
}
