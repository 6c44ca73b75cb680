package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-dataset/pkg/config"
	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/output"
)

const sampleDoc = "# A\nx\n## B\ny\n# C\nz\n"

func newTestServer(t *testing.T, appCfg *config.AppConfig) *Server {
	t.Helper()
	_, err := appCfg.Validate()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := NewServer(&ServerConfig{AppConfig: appCfg, Transport: "stdio", Logger: logger})
	require.NoError(t, err)
	return s
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultJSON decodes the text payload of a successful tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "unexpected tool error: %s", resultText(t, res))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractSnippet(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
		maxLen  int
		wantHas string // substring that must appear
		wantPfx string // expected prefix (if any)
		wantSfx string // expected suffix (if any)
	}{
		{
			name:    "match in middle with ellipsis",
			content: "The quick brown fox jumps over the lazy dog and then keeps running forever",
			query:   "jumps",
			maxLen:  20,
			wantHas: "jumps",
			wantPfx: "...",
			wantSfx: "...",
		},
		{
			name:    "match at start",
			content: "Hello world this is a test",
			query:   "Hello",
			maxLen:  20,
			wantHas: "Hello",
		},
		{
			name:    "no match truncated beginning",
			content: "abcdefghijklmnopqrstuvwxyz",
			query:   "zzz",
			maxLen:  10,
			wantHas: "abcdefghij",
			wantSfx: "...",
		},
		{
			name:    "short content returned as-is",
			content: "hi",
			query:   "missing",
			maxLen:  100,
			wantHas: "hi",
		},
		{
			name:    "case insensitive",
			content: "The Quick Brown Fox",
			query:   "quick",
			maxLen:  100,
			wantHas: "Quick",
		},
		{
			name:    "unicode safety",
			content: "こんにちは世界、テストです。Unicode文字列のテスト。",
			query:   "テスト",
			maxLen:  15,
			wantHas: "テスト",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSnippet(tt.content, tt.query, tt.maxLen)
			assert.Contains(t, got, tt.wantHas)
			if tt.wantPfx != "" {
				assert.True(t, strings.HasPrefix(got, tt.wantPfx), "expected prefix ellipsis")
			}
			if tt.wantSfx != "" {
				assert.True(t, strings.HasSuffix(got, tt.wantSfx), "expected suffix ellipsis")
			}
		})
	}
}

func TestParseJSONLine(t *testing.T) {
	t.Run("dataset line", func(t *testing.T) {
		line := strings.TrimSpace(string(output.EncodeChatLine(models.Record{Prompt: "guide - A", Completion: "x\ny"})))
		prompt, completion, err := parseJSONLine(line)
		require.NoError(t, err)
		assert.Equal(t, "guide - A", prompt)
		assert.Equal(t, "x\ny", completion)
	})

	t.Run("empty string", func(t *testing.T) {
		_, _, err := parseJSONLine("")
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, _, err := parseJSONLine("{not valid json}")
		assert.Error(t, err)
	})

	t.Run("no chat messages", func(t *testing.T) {
		_, _, err := parseJSONLine(`{"messages": []}`)
		assert.Error(t, err)
	})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 10, clamp(0, 10, 100))
	assert.Equal(t, 10, clamp(-3, 10, 100))
	assert.Equal(t, 42, clamp(42, 10, 100))
	assert.Equal(t, 100, clamp(1000, 10, 100))
}

func TestHandleBuildDataset(t *testing.T) {
	t.Run("waits and reports totals", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "docs/guide.md", sampleDoc)
		out := filepath.Join(dir, "out", "train.jsonl")
		s := newTestServer(t, &config.AppConfig{})

		res, err := s.handleBuildDataset(context.Background(), toolRequest("build_dataset", map[string]interface{}{
			"input_path":  filepath.Join(dir, "docs"),
			"output_path": out,
		}))
		require.NoError(t, err)

		got := resultJSON(t, res)
		assert.Equal(t, string(JobStatusCompleted), got["status"])
		assert.EqualValues(t, 1, got["documents"])
		assert.EqualValues(t, 4, got["records"])
		assert.NotEmpty(t, got["run_id"])

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, 4, strings.Count(string(data), "\n"))
	})

	t.Run("falls back to config paths", func(t *testing.T) {
		dir := t.TempDir()
		in := writeFile(t, dir, "single.md", sampleDoc)
		out := filepath.Join(dir, "single.jsonl")
		s := newTestServer(t, &config.AppConfig{InputPath: in, OutputPath: out})

		res, err := s.handleBuildDataset(context.Background(), toolRequest("build_dataset", nil))
		require.NoError(t, err)
		got := resultJSON(t, res)
		assert.EqualValues(t, 3, got["records"])
	})

	t.Run("missing paths is a tool error", func(t *testing.T) {
		s := newTestServer(t, &config.AppConfig{})
		res, err := s.handleBuildDataset(context.Background(), toolRequest("build_dataset", nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("failed build is a tool error", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestServer(t, &config.AppConfig{})
		res, err := s.handleBuildDataset(context.Background(), toolRequest("build_dataset", map[string]interface{}{
			"input_path":  filepath.Join(dir, "missing"),
			"output_path": filepath.Join(dir, "out.jsonl"),
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "build failed")
	})

	t.Run("without wait returns job id", func(t *testing.T) {
		dir := t.TempDir()
		in := writeFile(t, dir, "single.md", sampleDoc)
		s := newTestServer(t, &config.AppConfig{})

		res, err := s.handleBuildDataset(context.Background(), toolRequest("build_dataset", map[string]interface{}{
			"input_path":  in,
			"output_path": filepath.Join(dir, "out.jsonl"),
			"wait":        false,
		}))
		require.NoError(t, err)
		got := resultJSON(t, res)
		jobID, ok := got["job_id"].(string)
		require.True(t, ok)

		job, err := s.jobManager.Wait(context.Background(), jobID)
		require.NoError(t, err)
		assert.Equal(t, JobStatusCompleted, job.Status)
	})
}

func TestHandleGetBuildStatus(t *testing.T) {
	s := newTestServer(t, &config.AppConfig{})

	t.Run("missing id", func(t *testing.T) {
		res, err := s.handleGetBuildStatus(context.Background(), toolRequest("get_build_status", nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("unknown job", func(t *testing.T) {
		res, err := s.handleGetBuildStatus(context.Background(), toolRequest("get_build_status", map[string]interface{}{"job_id": "nope"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("known job", func(t *testing.T) {
		job, _ := s.jobManager.CreateJob("in", "out.jsonl")
		s.jobManager.Complete(job.ID, "run-1", 2, 5)

		res, err := s.handleGetBuildStatus(context.Background(), toolRequest("get_build_status", map[string]interface{}{"job_id": job.ID}))
		require.NoError(t, err)
		got := resultJSON(t, res)
		assert.Equal(t, job.ID, got["job_id"])
		assert.Equal(t, "completed", got["status"])
		assert.EqualValues(t, 5, got["records"])
		assert.Contains(t, got, "completed_at")
	})
}

func TestHandlePreviewDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "guide.md", sampleDoc)
	s := newTestServer(t, &config.AppConfig{})

	t.Run("lists records", func(t *testing.T) {
		res, err := s.handlePreviewDocument(context.Background(), toolRequest("preview_document", map[string]interface{}{"path": path}))
		require.NoError(t, err)
		got := resultJSON(t, res)

		assert.Equal(t, "guide", got["document_id"])
		assert.EqualValues(t, 3, got["headings"])
		assert.EqualValues(t, 3, got["total_records"])
		assert.Equal(t, false, got["truncated"])

		records, ok := got["records"].([]interface{})
		require.True(t, ok)
		require.Len(t, records, 3)
		first := records[0].(map[string]interface{})
		assert.Equal(t, "A", first["prompt"])
		assert.Equal(t, "x\n## B\ny", first["completion"])
	})

	t.Run("max_records truncates", func(t *testing.T) {
		res, err := s.handlePreviewDocument(context.Background(), toolRequest("preview_document", map[string]interface{}{
			"path":        path,
			"max_records": 1,
		}))
		require.NoError(t, err)
		got := resultJSON(t, res)
		assert.Len(t, got["records"], 1)
		assert.Equal(t, true, got["truncated"])
	})

	t.Run("missing file", func(t *testing.T) {
		res, err := s.handlePreviewDocument(context.Background(), toolRequest("preview_document", map[string]interface{}{
			"path": filepath.Join(dir, "missing.md"),
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestHandleInspectDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "# Title\ntext\n\n```\n# not a heading\n```\n")
	s := newTestServer(t, &config.AppConfig{})

	res, err := s.handleInspectDocument(context.Background(), toolRequest("inspect_document", map[string]interface{}{"path": path}))
	require.NoError(t, err)
	got := resultJSON(t, res)

	assert.Equal(t, "notes", got["document_id"])
	assert.Equal(t, "flat", got["path_mode"])
	assert.Len(t, got["headings"], 2)
	assert.EqualValues(t, 1, got["commonmark_heading"])

	diagnostics, ok := got["diagnostics"].([]interface{})
	require.True(t, ok)
	require.Len(t, diagnostics, 1)
	diag := diagnostics[0].(map[string]interface{})
	assert.EqualValues(t, 5, diag["line"])
}

func TestHandleSearchDataset(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.Write(output.EncodeChatLine(models.Record{Prompt: "guide - Install", Completion: "Run the installer."}))
	sb.Write(output.EncodeChatLine(models.Record{Prompt: "guide - Usage", Completion: "Call install() before use."}))
	sb.WriteString("not json\n")
	sb.Write(output.EncodeChatLine(models.Record{Prompt: "guide - Other", Completion: "Nothing here."}))
	datasetPath := writeFile(t, dir, "train.jsonl", sb.String())

	s := newTestServer(t, &config.AppConfig{OutputPath: datasetPath})

	t.Run("matches prompt then completion", func(t *testing.T) {
		res, err := s.handleSearchDataset(context.Background(), toolRequest("search_dataset", map[string]interface{}{"query": "INSTALL"}))
		require.NoError(t, err)
		got := resultJSON(t, res)

		assert.EqualValues(t, 2, got["total_matches"])
		results := got["results"].([]interface{})
		first := results[0].(map[string]interface{})
		second := results[1].(map[string]interface{})
		assert.Equal(t, "prompt", first["match_location"])
		assert.EqualValues(t, 1, first["line"])
		assert.Equal(t, "completion", second["match_location"])
		assert.Contains(t, second["snippet"], "install()")
	})

	t.Run("max_results limits", func(t *testing.T) {
		res, err := s.handleSearchDataset(context.Background(), toolRequest("search_dataset", map[string]interface{}{
			"query":       "guide",
			"max_results": 2,
		}))
		require.NoError(t, err)
		got := resultJSON(t, res)
		assert.EqualValues(t, 2, got["total_matches"])
	})

	t.Run("missing query", func(t *testing.T) {
		res, err := s.handleSearchDataset(context.Background(), toolRequest("search_dataset", nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("missing dataset", func(t *testing.T) {
		res, err := s.handleSearchDataset(context.Background(), toolRequest("search_dataset", map[string]interface{}{
			"query":        "x",
			"dataset_path": filepath.Join(dir, "none.jsonl"),
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}
