// Package mcpserver exposes transcript views as MCP tools over stdio,
// so coding agents can inspect evaluation runs without a browser.
package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/runlens/internal/outline"
	"github.com/ppiankov/runlens/internal/render"
)

// Config holds MCP server configuration.
type Config struct {
	// LogDir is the default directory for relative log names.
	LogDir string
	// Policy selects which regions render collapsed by default.
	Policy outline.Policy
	// Render holds terminal output options for the tool text.
	Render render.Options
	// Version is reported in the MCP handshake.
	Version string
}

// Server wraps the MCP SDK server with the transcript tools.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       Config
}

// New creates an MCP server with the runlens tools registered.
func New(cfg Config) *Server {
	if cfg.LogDir == "" {
		cfg.LogDir = "."
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	s := &Server{cfg: cfg}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "runlens",
			Version: cfg.Version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all runlens tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "runlens_logs",
		Description: "List evaluation logs available in a directory.",
	}, s.handleLogs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "runlens_outline",
		Description: "Render the outline view of an evaluation log: model/tool exchanges grouped into turns, noise pruned.",
	}, s.handleOutline)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "runlens_transcript",
		Description: "Render the full transcript view of an evaluation log, one line per event, indented by nesting.",
	}, s.handleTranscript)
}
