// Package render turns a flattened transcript row sequence into
// terminal text. It is pure string building; both the CLI and the MCP
// tools show its output verbatim.
package render

import (
	"fmt"
	"strings"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/tree"
)

const (
	red   = "\033[0;31m"
	cyan  = "\033[0;36m"
	bold  = "\033[1m"
	dim   = "\033[2m"
	reset = "\033[0m"
)

// Options control the text layout.
type Options struct {
	// Elapsed adds a right-aligned working-time column for events that
	// carry one.
	Elapsed bool `yaml:"elapsed"`
	// Color enables ANSI coloring of labels.
	Color bool `yaml:"color"`
	// Indent is the number of spaces per depth level; zero means the
	// default of two.
	Indent int `yaml:"indent"`
}

func (o Options) indent() int {
	if o.Indent <= 0 {
		return 2
	}
	return o.Indent
}

// Rows renders the flattened sequence, one line per row. Rows with
// children that are marked collapsed get a right-pointing marker,
// expanded parents a down-pointing one, leaves plain space.
func Rows(rows []*tree.Node, collapsed map[string]bool, opts Options) string {
	var b strings.Builder
	for _, n := range rows {
		b.WriteString(strings.Repeat(" ", n.Depth*opts.indent()))
		b.WriteString(marker(n, collapsed))
		b.WriteString(label(n.Event, opts))
		if opts.Elapsed && n.Event.WorkingStart > 0 {
			if opts.Color {
				fmt.Fprintf(&b, "  %s[%.1fs]%s", dim, n.Event.WorkingStart, reset)
			} else {
				fmt.Fprintf(&b, "  [%.1fs]", n.Event.WorkingStart)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func label(ev event.Event, opts Options) string {
	s := ev.Summary()
	if !opts.Color {
		return s
	}
	switch {
	case ev.Kind == event.KindError || ev.Failed:
		return red + s + reset
	case ev.Kind == event.KindScore || ev.Type == event.TypeScoring:
		return cyan + s + reset
	case ev.Kind == event.KindStep || ev.Kind == event.KindSpanBegin:
		return bold + s + reset
	}
	return s
}

func marker(n *tree.Node, collapsed map[string]bool) string {
	if len(n.Children) == 0 {
		return "  "
	}
	if collapsed != nil && collapsed[n.ID] {
		return "▸ "
	}
	return "▾ "
}
