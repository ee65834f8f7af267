package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/logfile"
	"github.com/ppiankov/runlens/internal/outline"
	"github.com/ppiankov/runlens/internal/render"
)

var (
	outlineWatch   bool
	outlineElapsed bool
	outlineNoColor bool
)

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().BoolVarP(&outlineWatch, "watch", "w", false, "Follow the log and reprint on growth")
	outlineCmd.Flags().BoolVar(&outlineElapsed, "elapsed", false, "Show working-time column")
	outlineCmd.Flags().BoolVar(&outlineNoColor, "no-color", false, "Disable ANSI colors")
}

var outlineCmd = &cobra.Command{
	Use:   "outline <log>",
	Short: "Print the summary outline of an eval log",
	Long:  "Prints the grouped view: model/tool exchanges folded into turns, consecutive\nturns and scorings counted, and state/store/logger noise pruned.",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutline,
}

func runOutline(cmd *cobra.Command, args []string) error {
	path := args[0]
	opts := cfg.Render
	if outlineElapsed {
		opts.Elapsed = true
	}
	if outlineNoColor {
		opts.Color = false
	}

	if !outlineWatch {
		events, skipped, err := logfile.Read(path)
		if err != nil {
			return err
		}
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, "warning: skipped %d malformed lines\n", skipped)
		}
		fmt.Print(renderOutline(events, false, opts))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	tail := logfile.NewTail(path, func(events []event.Event) {
		// Clear and repaint; the outline is small by construction.
		fmt.Print("\033[H\033[2J")
		fmt.Print(renderOutline(events, true, opts))
	})
	if err := tail.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func renderOutline(events []event.Event, running bool, opts render.Options) string {
	collapsed := outline.DefaultCollapsed(outline.Forest(events, running), cfg.Collapse)
	rows := outline.Outline(events, running, collapsed)
	return render.Rows(rows, collapsed, opts)
}
