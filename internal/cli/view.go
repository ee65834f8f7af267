package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/runlens/internal/logfile"
	"github.com/ppiankov/runlens/internal/outline"
	"github.com/ppiankov/runlens/internal/render"
)

var (
	viewExpand  bool
	viewRunning bool
	viewElapsed bool
	viewNoColor bool
)

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().BoolVar(&viewExpand, "expand", false, "Expand regions that default to collapsed")
	viewCmd.Flags().BoolVar(&viewRunning, "running", false, "Treat the log as a live run (keep pending events)")
	viewCmd.Flags().BoolVar(&viewElapsed, "elapsed", false, "Show working-time column")
	viewCmd.Flags().BoolVar(&viewNoColor, "no-color", false, "Disable ANSI colors")
}

var viewCmd = &cobra.Command{
	Use:   "view <log>",
	Short: "Print the full transcript of an eval log",
	Long:  "Prints every event of the log as an indented tree, one line per event.\nThe log argument is a path to a .eval.jsonl file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

func runView(cmd *cobra.Command, args []string) error {
	events, skipped, err := logfile.Read(args[0])
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "warning: skipped %d malformed lines\n", skipped)
	}

	var collapsed map[string]bool
	if !viewExpand {
		collapsed = outline.DefaultCollapsed(outline.Forest(events, viewRunning), cfg.Collapse)
	}
	rows := outline.Transcript(events, viewRunning, collapsed)

	opts := cfg.Render
	if viewElapsed {
		opts.Elapsed = true
	}
	if viewNoColor {
		opts.Color = false
	}
	fmt.Print(render.Rows(rows, collapsed, opts))
	return nil
}
