package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/runlens/internal/server"
)

var (
	serveAddr   string
	serveLogDir string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "", "Directory of eval logs (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP viewer API",
	Long:  "Serves the transcript API over HTTP JSON plus a WebSocket channel that pushes\nrefreshed views while a run is still writing its log.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	logDir := cfg.LogDir
	if serveLogDir != "" {
		logDir = serveLogDir
	}

	srv, err := server.New(server.Config{
		Addr:      addr,
		LogDir:    logDir,
		CacheSize: cfg.CacheSize,
		View:      cfg.View,
		Policy:    cfg.Collapse,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down viewer server...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "runlens viewer listening on %s\n", addr)
	fmt.Fprintf(os.Stderr, "Log dir: %s\n", logDir)
	return srv.Start(ctx)
}
