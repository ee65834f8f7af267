// Package cli implements the runlens command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/runlens/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "runlens",
	Short: "Transcript outline viewer for AI agent evaluation runs",
	Long:  "Reads the flat JSONL event stream an evaluation runtime writes and reconstructs\nthe nested, de-noised transcript: spans and steps become a tree, model/tool\nexchanges group into turns, and noise events are pruned away.",
}

// cfg is loaded once before any command runs.
var cfg config.Config

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		loaded, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
			loaded = config.Default()
		}
		cfg = loaded
	})
}
