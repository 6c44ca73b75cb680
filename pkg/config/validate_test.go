package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, InputModeAuto, cfg.Mode)
	assert.Equal(t, "flat", cfg.PathMode)
	assert.Equal(t, " - ", cfg.PathSeparator)
	assert.Equal(t, []string{".md"}, cfg.Extensions)
	assert.Equal(t, "cl100k_base", cfg.TokenizerEncoding)
	assert.Equal(t, "./md_dataset_state", cfg.StateDir)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.WithDocumentPrefix)
	assert.Nil(t, cfg.IncludeWholeDocument)
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		Mode:                    "Folder",
		PathMode:                "ANCESTORS",
		PathSeparator:           " / ",
		Extensions:              []string{"MD", ".markdown", ".md"},
		ExcludePatterns:         []string{`^drafts/`},
		MaxCompletionTokens:     512,
		CompletionOverlapTokens: 32,
		TokenizerEncoding:       " O200K_Base ",
		WatchDebounce:           2 * time.Second,
		LogLevel:                "debug",
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, InputModeFolder, cfg.Mode)
	assert.Equal(t, "ancestors", cfg.PathMode)
	assert.Equal(t, " / ", cfg.PathSeparator)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Extensions)
	assert.Equal(t, 512, cfg.MaxCompletionTokens)
	assert.Equal(t, 32, cfg.CompletionOverlapTokens)
	assert.Equal(t, "o200k_base", cfg.TokenizerEncoding)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestAppConfig_Validate_Corrections(t *testing.T) {
	cfg := AppConfig{
		MaxCompletionTokens:     100,
		CompletionOverlapTokens: 150,
		WatchDebounce:           -time.Second,
		LogLevel:                "verbose",
		TokenizerEncoding:       "gpt2",
		ManifestFilename:        "m.yaml",
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.CompletionOverlapTokens)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "cl100k_base", cfg.TokenizerEncoding)
	assert.True(t, containsWarning(warnings, "tokenizer_encoding 'gpt2' is not supported"))
	assert.True(t, containsWarning(warnings, "completion_overlap_tokens (150) >= max_completion_tokens (100)"))
	assert.True(t, containsWarning(warnings, "watch_debounce cannot be negative"))
	assert.True(t, containsWarning(warnings, "log_level 'verbose' is invalid"))
	assert.True(t, containsWarning(warnings, "enable_manifest"))
}

func TestAppConfig_Validate_NegativeTokens(t *testing.T) {
	cfg := AppConfig{MaxCompletionTokens: -5, CompletionOverlapTokens: -1}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxCompletionTokens)
	assert.Equal(t, 0, cfg.CompletionOverlapTokens)
	assert.True(t, containsWarning(warnings, "max_completion_tokens cannot be negative"))
	assert.True(t, containsWarning(warnings, "completion_overlap_tokens cannot be negative"))
}

func TestAppConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AppConfig
	}{
		{"unknown mode", AppConfig{Mode: "tree"}},
		{"unknown path mode", AppConfig{PathMode: "nested"}},
		{"bad exclude pattern", AppConfig{ExcludePatterns: []string{"(unclosed"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrConfigValidation))
		})
	}
}

func TestAppConfig_ValidatePaths(t *testing.T) {
	assert.NoError(t, (&AppConfig{InputPath: "docs", OutputPath: "out.jsonl"}).ValidatePaths())

	err := (&AppConfig{OutputPath: "out.jsonl"}).ValidatePaths()
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
	assert.Contains(t, err.Error(), "input path")

	err = (&AppConfig{InputPath: "docs"}).ValidatePaths()
	assert.Contains(t, err.Error(), "output path")
}
