package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-dataset/pkg/config"
)

const (
	serverName    = "md-dataset"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
}

// Server wraps the MCP server with dataset build tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	tools := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{
			mcp.NewTool("build_dataset",
				mcp.WithDescription("Convert a Markdown file or folder into a JSONL prompt/completion dataset"),
				mcp.WithString("input_path",
					mcp.Description("Markdown file or directory (defaults to input_path from config)"),
				),
				mcp.WithString("output_path",
					mcp.Description("Destination .jsonl file (defaults to output_path from config)"),
				),
				mcp.WithBoolean("wait",
					mcp.Description("Wait for the build to finish (default: true). When false, returns a job ID immediately."),
				),
			),
			s.handleBuildDataset,
		},
		{
			mcp.NewTool("get_build_status",
				mcp.WithDescription("Get the status of a build job"),
				mcp.WithString("job_id",
					mcp.Required(),
					mcp.Description("The job ID returned by build_dataset"),
				),
			),
			s.handleGetBuildStatus,
		},
		{
			mcp.NewTool("preview_document",
				mcp.WithDescription("Show the records a single Markdown document would produce, without writing anything"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path to the Markdown document"),
				),
				mcp.WithNumber("max_records",
					mcp.Description("Maximum number of records to return (default: 50, max: 500)"),
				),
			),
			s.handlePreviewDocument,
		},
		{
			mcp.NewTool("inspect_document",
				mcp.WithDescription("List a document's headings and sections, and where the heading matcher disagrees with CommonMark"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Path to the Markdown document"),
				),
			),
			s.handleInspectDocument,
		},
		{
			mcp.NewTool("search_dataset",
				mcp.WithDescription("Search prompts and completions of a generated dataset"),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query (case-insensitive substring match)"),
				),
				mcp.WithString("dataset_path",
					mcp.Description("JSONL dataset to search (defaults to output_path from config)"),
				),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
				),
			),
			s.handleSearchDataset,
		},
	}

	for _, t := range tools {
		s.mcpServer.AddTool(t.tool, t.handler)
	}
	s.log.Infof("Registered %d MCP tools", len(tools))
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
