package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sriram-PR/md-dataset/pkg/config"
	"github.com/Sriram-PR/md-dataset/pkg/dataset"
	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/process"
)

// handleBuildDataset handles the build_dataset tool
func (s *Server) handleBuildDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inputPath := request.GetString("input_path", s.cfg.AppConfig.InputPath)
	outputPath := request.GetString("output_path", s.cfg.AppConfig.OutputPath)
	if inputPath == "" {
		return mcp.NewToolResultError("input_path parameter is required (no default in config)"), nil
	}
	if outputPath == "" {
		return mcp.NewToolResultError("output_path parameter is required (no default in config)"), nil
	}
	wait := request.GetBool("wait", true)

	job, created := s.jobManager.CreateJob(inputPath, outputPath)
	if !created {
		result := map[string]interface{}{
			"status":      "already_running",
			"message":     "A build is already in progress for this output",
			"job_id":      job.ID,
			"output_path": outputPath,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	go s.runBuildJob(job.ID, inputPath, outputPath)

	if !wait {
		result := map[string]interface{}{
			"status":      "started",
			"message":     "Build started",
			"job_id":      job.ID,
			"output_path": outputPath,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	finished, err := s.jobManager.Wait(ctx, job.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stopped waiting for job %s: %v", job.ID, err)), nil
	}
	if finished.Status == JobStatusFailed {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %s", finished.ErrorMessage)), nil
	}
	return mcp.NewToolResultText(formatJSON(jobDetails(finished))), nil
}

// handleGetBuildStatus handles the get_build_status tool
func (s *Server) handleGetBuildStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	return mcp.NewToolResultText(formatJSON(jobDetails(job))), nil
}

// handlePreviewDocument handles the preview_document tool
func (s *Server) handlePreviewDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}
	maxRecords := clamp(request.GetInt("max_records", 50), 50, 500)

	doc, assembly, err := dataset.NewPipeline(s.cfg.AppConfig, s.log).Preview(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to preview '%s': %v", path, err)), nil
	}

	records := make([]map[string]interface{}, 0, min(len(assembly.Records), maxRecords))
	for i, rec := range assembly.Records {
		if i >= maxRecords {
			break
		}
		records = append(records, map[string]interface{}{
			"prompt":     rec.Prompt,
			"completion": rec.Completion,
		})
	}

	result := map[string]interface{}{
		"document_id":   doc.ID,
		"path":          doc.Path,
		"headings":      len(assembly.Headings),
		"total_records": len(assembly.Records),
		"records":       records,
		"truncated":     len(assembly.Records) > maxRecords,
	}
	if title := doc.Title(); title != "" {
		result["title"] = title
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleInspectDocument handles the inspect_document tool
func (s *Server) handleInspectDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	doc, err := dataset.LoadDocument(path, "", s.cfg.AppConfig.StripFrontMatter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load '%s': %v", path, err)), nil
	}
	mode, err := process.ParsePathMode(s.cfg.AppConfig.PathMode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := dataset.Inspect(doc, mode)
	sep := config.GetEffectivePathSeparator(*s.cfg.AppConfig)

	headings := make([]map[string]interface{}, 0, len(in.Headings))
	for _, h := range in.Headings {
		headings = append(headings, map[string]interface{}{
			"level": h.Level,
			"title": h.Title,
			"line":  h.Position + 1,
		})
	}

	sections := make([]map[string]interface{}, 0, len(in.Sections))
	for _, sec := range in.Sections {
		sections = append(sections, map[string]interface{}{
			"label":       dataset.Label(sec.Path, sep),
			"level":       sec.Level,
			"line":        sec.Position + 1,
			"body_length": len(sec.Body),
		})
	}

	diagnostics := make([]map[string]interface{}, 0, len(in.Diagnostics))
	for _, d := range in.Diagnostics {
		diagnostics = append(diagnostics, map[string]interface{}{
			"line":    d.Line + 1,
			"kind":    d.Kind,
			"message": d.Message,
		})
	}

	result := map[string]interface{}{
		"document_id":        doc.ID,
		"path":               doc.Path,
		"path_mode":          string(mode),
		"headings":           headings,
		"sections":           sections,
		"commonmark_heading": len(in.Outline),
		"diagnostics":        diagnostics,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchDataset handles the search_dataset tool
func (s *Server) handleSearchDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	datasetPath := request.GetString("dataset_path", s.cfg.AppConfig.OutputPath)
	if datasetPath == "" {
		return mcp.NewToolResultError("dataset_path parameter is required (no default in config)"), nil
	}
	maxResults := clamp(request.GetInt("max_results", 10), 10, 100)

	results, err := searchJSONL(datasetPath, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search '%s': %v", datasetPath, err)), nil
	}

	response := map[string]interface{}{
		"query":         query,
		"dataset_path":  datasetPath,
		"results":       results,
		"total_matches": len(results),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// runBuildJob runs a build job in the background
func (s *Server) runBuildJob(jobID, inputPath, outputPath string) {
	s.jobManager.UpdateStatus(jobID, JobStatusRunning, "")
	jobCtx := s.jobManager.GetContext(jobID)

	result, err := dataset.NewPipeline(s.cfg.AppConfig, s.log).Run(jobCtx, inputPath, outputPath)
	if err != nil {
		if jobCtx.Err() != nil {
			s.jobManager.UpdateStatus(jobID, JobStatusCancelled, "")
		} else {
			s.jobManager.UpdateStatus(jobID, JobStatusFailed, err.Error())
		}
		return
	}

	s.jobManager.Complete(jobID, result.RunID, result.Documents, result.Records)
}

// jobDetails renders a job for tool results
func jobDetails(job *Job) map[string]interface{} {
	result := map[string]interface{}{
		"job_id":      job.ID,
		"input_path":  job.InputPath,
		"output_path": job.OutputPath,
		"status":      job.Status,
		"started_at":  job.StartedAt.Format(time.RFC3339),
		"documents":   job.Documents,
		"records":     job.Records,
	}

	if job.RunID != "" {
		result["run_id"] = job.RunID
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return result
}

// searchJSONL streams a dataset file and returns records whose prompt or
// completion contains query.
func searchJSONL(path, query string, maxResults int) ([]map[string]interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	results := make([]map[string]interface{}, 0)
	queryLower := strings.ToLower(query)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024) // up to 10MB per line

	lineNo := 0
	for scanner.Scan() && len(results) < maxResults {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		prompt, completion, err := parseJSONLine(line)
		if err != nil {
			continue
		}

		matchLocation := ""
		if strings.Contains(strings.ToLower(prompt), queryLower) {
			matchLocation = "prompt"
		} else if strings.Contains(strings.ToLower(completion), queryLower) {
			matchLocation = "completion"
		}
		if matchLocation == "" {
			continue
		}

		results = append(results, map[string]interface{}{
			"line":           lineNo,
			"prompt":         prompt,
			"snippet":        extractSnippet(completion, query, 150),
			"match_location": matchLocation,
		})
	}

	return results, scanner.Err()
}

// extractSnippet extracts a snippet around the query match, slicing on rune
// boundaries so multi-byte UTF-8 characters are never split.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(query))
	contentLowerRunes := []rune(strings.ToLower(content))

	idx := -1
	for i := 0; i <= len(contentLowerRunes)-len(queryRunes); i++ {
		if string(contentLowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}

	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}

	return snippet
}

// parseJSONLine decodes one dataset line into its prompt and completion
func parseJSONLine(line string) (prompt, completion string, err error) {
	var chat models.ChatLine
	if err := json.Unmarshal([]byte(line), &chat); err != nil {
		return "", "", err
	}
	for _, msg := range chat.Messages {
		switch msg.Role {
		case models.RoleUser:
			prompt = msg.Content
		case models.RoleAssistant:
			completion = msg.Content
		}
	}
	if prompt == "" && completion == "" {
		return "", "", fmt.Errorf("line has no user or assistant message")
	}
	return prompt, completion, nil
}

// clamp maps non-positive values to def and caps at limit
func clamp(v, def, limit int) int {
	if v <= 0 {
		return def
	}
	if v > limit {
		return limit
	}
	return v
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
