// Package outline builds the summary view of a transcript: model/tool
// exchanges grouped into turns, consecutive turns and scorings folded
// into counted summary nodes, and noise events pruned. Visitors here
// buffer nodes across a sibling run and emit on flush, so every
// pipeline invocation constructs fresh instances.
package outline

import (
	"fmt"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/flatten"
	"github.com/ppiankov/runlens/internal/tree"
)

func isTurn(n *tree.Node) bool {
	return n.Event.Kind == event.KindSpanBegin && n.Event.Type == event.TypeTurn
}

// MakeTurns returns a visitor that folds a model event plus its
// immediately following tool events into one synthetic turn span.
// Back-to-back model events with no tool between them belong to the
// same exchange and fold into a single turn.
func MakeTurns() flatten.Visitor {
	return &makeTurns{grouped: make(map[string]bool)}
}

type makeTurns struct {
	run     []*tree.Node
	grouped map[string]bool
}

func (v *makeTurns) Visit(n *tree.Node) []*tree.Node {
	// Nodes already inside a turn come back around when the turn's
	// children are recursed into; regrouping them would nest turns on
	// every pass.
	if isTurn(n) {
		for _, c := range n.Children {
			v.grouped[c.ID] = true
		}
		return append(v.close(), n)
	}
	if v.grouped[n.ID] {
		return append(v.close(), n)
	}
	switch n.Event.Kind {
	case event.KindModel:
		if len(v.run) > 0 && v.run[len(v.run)-1].Event.Kind != event.KindModel {
			// The open turn already has tool calls; a new model
			// event starts the next exchange.
			out := v.close()
			v.run = []*tree.Node{n}
			return out
		}
		v.run = append(v.run, n)
		return nil
	case event.KindTool:
		if len(v.run) > 0 {
			v.run = append(v.run, n)
			return nil
		}
		// A tool with no preceding model is not a turn.
		return []*tree.Node{n}
	}
	return append(v.close(), n)
}

func (v *makeTurns) Flush() []*tree.Node {
	return v.close()
}

// EnterScope suspends the open run while a child scope is flattened; a
// run buffered among outer siblings must not flush into an inner one.
func (v *makeTurns) EnterScope() func() {
	run := v.run
	v.run = nil
	return func() { v.run = run }
}

func (v *makeTurns) close() []*tree.Node {
	if len(v.run) == 0 {
		return nil
	}
	first := v.run[0]
	// The id derives from the first member, which stays a child, so a
	// suffix keeps flat-row virtualization keys unique.
	turn := &tree.Node{
		ID:    first.ID + ".turn",
		Depth: first.Depth,
		Event: event.Event{
			Kind:         event.KindSpanBegin,
			Type:         event.TypeTurn,
			Name:         "turn",
			Timestamp:    first.Event.Timestamp,
			WorkingStart: first.Event.WorkingStart,
			SpanID:       first.Event.SpanID,
		},
	}
	for _, b := range v.run {
		v.grouped[b.ID] = true
		turn.Children = append(turn.Children, tree.Reparent(b, first.Depth+1))
	}
	v.run = nil
	return []*tree.Node{turn}
}

// CollapseTurns returns a visitor that folds a consecutive run of
// sibling turn nodes at the same depth into one summary node labeled
// with the run's count. The summary keeps the first turn's identity and
// timestamp; a depth change mid-run closes the run.
func CollapseTurns() flatten.Visitor {
	return &collapseTurns{grouped: make(map[string]bool)}
}

type collapseTurns struct {
	run     []*tree.Node
	depth   int
	grouped map[string]bool
}

func (v *collapseTurns) Visit(n *tree.Node) []*tree.Node {
	if n.Event.Kind == event.KindSpanBegin && n.Event.Type == event.TypeTurns {
		// An existing summary: its member turns must not be folded
		// again when the recursion reaches them.
		for _, c := range n.Children {
			v.grouped[c.ID] = true
		}
		return append(v.close(), n)
	}
	if v.grouped[n.ID] {
		return []*tree.Node{n}
	}
	if isTurn(n) {
		if len(v.run) > 0 && n.Depth != v.depth {
			out := v.close()
			v.depth = n.Depth
			v.run = []*tree.Node{n}
			return out
		}
		if len(v.run) == 0 {
			v.depth = n.Depth
		}
		v.run = append(v.run, n)
		return nil
	}
	return append(v.close(), n)
}

func (v *collapseTurns) Flush() []*tree.Node {
	return v.close()
}

func (v *collapseTurns) EnterScope() func() {
	run, depth := v.run, v.depth
	v.run = nil
	return func() { v.run, v.depth = run, depth }
}

func (v *collapseTurns) close() []*tree.Node {
	switch len(v.run) {
	case 0:
		return nil
	case 1:
		out := v.run[0]
		v.run = nil
		return []*tree.Node{out}
	}
	first := v.run[0]
	summary := &tree.Node{
		ID:    first.ID + ".turns",
		Depth: v.depth,
		Event: event.Event{
			Kind:         event.KindSpanBegin,
			Type:         event.TypeTurns,
			Name:         fmt.Sprintf("%d turns", len(v.run)),
			Timestamp:    first.Event.Timestamp,
			WorkingStart: first.Event.WorkingStart,
			SpanID:       first.Event.SpanID,
		},
	}
	for _, b := range v.run {
		v.grouped[b.ID] = true
		summary.Children = append(summary.Children, tree.Reparent(b, v.depth+1))
	}
	v.run = nil
	return []*tree.Node{summary}
}

// CollapseScoring returns a visitor that folds a consecutive run of
// score events into one summary node labeled "scoring", keyed on the
// event kind the way turn collapsing is keyed on depth.
func CollapseScoring() flatten.Visitor {
	return &collapseScoring{grouped: make(map[string]bool)}
}

type collapseScoring struct {
	run     []*tree.Node
	grouped map[string]bool
}

func (v *collapseScoring) Visit(n *tree.Node) []*tree.Node {
	if n.Event.Kind == event.KindSpanBegin && n.Event.Type == event.TypeScoring {
		for _, c := range n.Children {
			v.grouped[c.ID] = true
		}
		return append(v.close(), n)
	}
	if v.grouped[n.ID] {
		return []*tree.Node{n}
	}
	if n.Event.Kind == event.KindScore {
		v.run = append(v.run, n)
		return nil
	}
	return append(v.close(), n)
}

func (v *collapseScoring) Flush() []*tree.Node {
	return v.close()
}

func (v *collapseScoring) EnterScope() func() {
	run := v.run
	v.run = nil
	return func() { v.run = run }
}

func (v *collapseScoring) close() []*tree.Node {
	switch len(v.run) {
	case 0:
		return nil
	case 1:
		out := v.run[0]
		v.run = nil
		return []*tree.Node{out}
	}
	first := v.run[0]
	summary := &tree.Node{
		ID:    first.ID + ".scoring",
		Depth: first.Depth,
		Event: event.Event{
			Kind:         event.KindSpanBegin,
			Type:         event.TypeScoring,
			Name:         "scoring",
			Timestamp:    first.Event.Timestamp,
			WorkingStart: first.Event.WorkingStart,
			SpanID:       first.Event.SpanID,
		},
	}
	for _, b := range v.run {
		v.grouped[b.ID] = true
		summary.Children = append(summary.Children, tree.Reparent(b, first.Depth+1))
	}
	v.run = nil
	return []*tree.Node{summary}
}
