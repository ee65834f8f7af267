package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/runlens/internal/mcpserver"
)

var mcpLogDir string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpLogDir, "log-dir", "", "Directory of eval logs (overrides config)")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs runlens as an MCP (Model Context Protocol) server over stdio.\nExposes the transcript tools: logs, outline, transcript.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	logDir := cfg.LogDir
	if mcpLogDir != "" {
		logDir = mcpLogDir
	}

	// Tool output goes to an agent, not a terminal.
	renderOpts := cfg.Render
	renderOpts.Color = false

	srv := mcpserver.New(mcpserver.Config{
		LogDir:  logDir,
		Policy:  cfg.Collapse,
		Render:  renderOpts,
		Version: version,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "runlens MCP server running on stdio")
	return srv.Run(ctx)
}
