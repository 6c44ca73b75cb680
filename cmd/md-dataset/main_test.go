package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-dataset/pkg/config"
)

const guideDoc = "# A\nx\n## B\ny\n# C\nz\n"

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDoBuild_Folder(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "docs/guide.md", guideDoc)
	writeTestFile(t, tmpDir, "docs/nested/notes.md", "Plain notes\n")
	out := filepath.Join(tmpDir, "train.jsonl")

	var stdout, stderr bytes.Buffer
	exitCode := doBuild(context.Background(), cliOptions{
		input:  filepath.Join(tmpDir, "docs"),
		output: out,
	}, &stdout, &stderr)

	require.Equal(t, 0, exitCode, stderr.String())
	assert.Equal(t, "Processed 2 markdown files.\nGenerated 5 prompt-completion pairs.\n", stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `{"messages": [{"role": "user", "content": "guide"}, {"role": "assistant", "content": "# A\nx\n## B\ny\n# C\nz"}]}`, lines[0])
}

func TestDoBuild_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	in := writeTestFile(t, tmpDir, "guide.md", guideDoc)
	out := filepath.Join(tmpDir, "out", "guide.jsonl")

	var stdout, stderr bytes.Buffer
	exitCode := doBuild(context.Background(), cliOptions{input: in, output: out}, &stdout, &stderr)

	require.Equal(t, 0, exitCode, stderr.String())
	assert.Contains(t, stdout.String(), "Processed 1 markdown files.")
	assert.Contains(t, stdout.String(), "Generated 3 prompt-completion pairs.")
}

func TestDoBuild_ConfigFileAndManifest(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "docs/guide.md", guideDoc)
	out := filepath.Join(tmpDir, "train.jsonl")
	cfgPath := writeTestFile(t, tmpDir, "dataset.yaml", "input_path: "+filepath.Join(tmpDir, "docs")+"\noutput_path: "+out+"\npath_mode: ancestors\n")

	var stdout, stderr bytes.Buffer
	exitCode := doBuild(context.Background(), cliOptions{configPath: cfgPath, manifest: true}, &stdout, &stderr)

	require.Equal(t, 0, exitCode, stderr.String())
	assert.FileExists(t, filepath.Join(tmpDir, "train.manifest.yaml"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content": "guide - C"`)
	assert.NotContains(t, string(data), `"content": "guide - A - B - C"`)
}

func TestDoBuild_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		opts    cliOptions
		wantErr string
	}{
		{
			name:    "missing paths",
			opts:    cliOptions{},
			wantErr: "input path is required",
		},
		{
			name:    "missing input",
			opts:    cliOptions{input: filepath.Join(tmpDir, "none"), output: filepath.Join(tmpDir, "out.jsonl")},
			wantErr: "Error",
		},
		{
			name:    "bad mode",
			opts:    cliOptions{input: tmpDir, output: filepath.Join(tmpDir, "out.jsonl"), mode: "sideways"},
			wantErr: "mode",
		},
		{
			name:    "missing config file",
			opts:    cliOptions{configPath: filepath.Join(tmpDir, "nope.yaml")},
			wantErr: "read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			exitCode := doBuild(context.Background(), tt.opts, &stdout, &stderr)
			assert.Equal(t, 1, exitCode)
			assert.Contains(t, stderr.String(), tt.wantErr)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestDoBuild_InvalidEncodingFails(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "docs/bad.md", "# T\n\xff\xfe\n")

	var stdout, stderr bytes.Buffer
	exitCode := doBuild(context.Background(), cliOptions{
		input:  filepath.Join(tmpDir, "docs"),
		output: filepath.Join(tmpDir, "out.jsonl"),
	}, &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Empty(t, stdout.String())
}

func TestApplyOverrides(t *testing.T) {
	appCfg := &config.AppConfig{InputPath: "cfg-in", OutputPath: "cfg-out", PathMode: "flat"}
	applyOverrides(appCfg, cliOptions{
		output:      "flag-out",
		pathMode:    "ancestors",
		manifest:    true,
		countTokens: true,
		maxTokens:   256,
	})

	assert.Equal(t, "cfg-in", appCfg.InputPath)
	assert.Equal(t, "flag-out", appCfg.OutputPath)
	assert.Equal(t, "ancestors", appCfg.PathMode)
	assert.True(t, appCfg.EnableManifest)
	assert.True(t, appCfg.EnableTokenCounting)
	assert.Equal(t, 256, appCfg.MaxCompletionTokens)
	assert.False(t, appCfg.StripFrontMatter)
}

func TestDoInspect(t *testing.T) {
	tmpDir := t.TempDir()
	in := writeTestFile(t, tmpDir, "notes.md", "# Title\ntext\n\n```\n# not a heading\n```\n")

	var stdout, stderr bytes.Buffer
	exitCode := doInspect(cliOptions{input: in}, &stdout, &stderr)

	require.Equal(t, 0, exitCode, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Document: notes")
	assert.Contains(t, out, "Headings (2):")
	assert.Contains(t, out, "Diagnostics (1):")
	assert.Contains(t, out, "not-commonmark")
}

func TestDoInspect_NoDiagnostics(t *testing.T) {
	tmpDir := t.TempDir()
	in := writeTestFile(t, tmpDir, "guide.md", guideDoc)

	var stdout, stderr bytes.Buffer
	exitCode := doInspect(cliOptions{input: in, pathMode: "ancestors"}, &stdout, &stderr)

	require.Equal(t, 0, exitCode, stderr.String())
	assert.Contains(t, stdout.String(), "path mode ancestors")
	assert.Contains(t, stdout.String(), "A - B")
	assert.Contains(t, stdout.String(), "No diagnostics.")
}

func TestDoInspect_MissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, doInspect(cliOptions{}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-input is required")
}

func TestDoValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfgPath := writeTestFile(t, tmpDir, "config.yaml", "input_path: docs\noutput_path: train.jsonl\nextensions: [md, MARKDOWN]\n")

		var stdout, stderr bytes.Buffer
		exitCode := doValidate(cfgPath, &stdout, &stderr)

		assert.Equal(t, 0, exitCode, stderr.String())
		assert.Contains(t, stdout.String(), "Configuration valid")
		assert.NotContains(t, stdout.String(), "WARN")
	})

	t.Run("warnings are reported", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfgPath := writeTestFile(t, tmpDir, "config.yaml", "max_completion_tokens: -5\n")

		var stdout, stderr bytes.Buffer
		exitCode := doValidate(cfgPath, &stdout, &stderr)

		assert.Equal(t, 0, exitCode)
		assert.Contains(t, stdout.String(), "WARN:")
	})

	t.Run("invalid exclude pattern", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfgPath := writeTestFile(t, tmpDir, "config.yaml", "exclude_patterns: [\"[unclosed\"]\n")

		var stdout, stderr bytes.Buffer
		exitCode := doValidate(cfgPath, &stdout, &stderr)

		assert.Equal(t, 1, exitCode)
		assert.Contains(t, stderr.String(), "ERROR")
	})

	t.Run("config not found", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		exitCode := doValidate("/nonexistent.yaml", &stdout, &stderr)

		assert.Equal(t, 1, exitCode)
		assert.Contains(t, stderr.String(), "ERROR")
	})
}

func TestDoMcpServer_UnknownTransport(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exitCode := doMcpServer("", "carrier-pigeon", 0, "info", &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Unknown transport")
}

func TestSetupLogger_InvalidLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log := setupLogger("loud", &buf)

	assert.Equal(t, "info", log.GetLevel().String())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestPrintUsageTo(t *testing.T) {
	var buf bytes.Buffer
	printUsageTo(&buf)

	out := buf.String()
	for _, cmd := range []string{"build", "inspect", "watch", "validate", "mcp-server", "version"} {
		assert.Contains(t, out, cmd)
	}
}
