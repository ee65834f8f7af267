// Package flatten converts a transcript forest into the flat,
// render-ready sequence the viewer consumes, honoring per-node collapse
// state and an ordered chain of visitor passes. Visitors are
// constructed fresh for every invocation; none carries state across
// calls, so flattening the same forest twice yields identical output.
package flatten

import (
	"github.com/ppiankov/runlens/internal/tree"
)

// Visitor rewrites one node before its children are recursed into. It
// may delete the node (empty result), relabel it (one modified node),
// or split it (several nodes).
type Visitor interface {
	Visit(n *tree.Node) []*tree.Node
}

// Flusher is implemented by visitors that buffer nodes across a sibling
// run and only know the run is complete when the scope ends.
type Flusher interface {
	Flush() []*tree.Node
}

// Scoped is implemented by buffering visitors whose run is local to one
// sibling scope. EnterScope stashes the open run and returns a function
// that restores it, so descending into a child scope never flushes the
// parent scope's buffer into the child's output.
type Scoped interface {
	EnterScope() func()
}

// Flatten produces the ordered render sequence for the forest. A nil
// collapsed map means fully expanded; a missing entry means expanded.
// Each node survives the whole visitor chain before its children are
// flattened and attached; the node is emitted followed by its flattened
// children unless its id is marked collapsed. After all siblings at a
// scope are processed, buffering visitors flush into the result.
func Flatten(forest []*tree.Node, collapsed map[string]bool, visitors []Visitor) []*tree.Node {
	var out []*tree.Node
	for _, n := range forest {
		if len(visitors) == 0 {
			out = append(out, n)
			if collapsed == nil || !collapsed[n.ID] {
				out = append(out, Flatten(n.Children, collapsed, visitors)...)
			}
			continue
		}
		for _, p := range runChain(n, visitors) {
			out = append(out, emit(p, collapsed, visitors)...)
		}
	}
	for _, p := range flush(visitors) {
		out = append(out, emit(p, collapsed, visitors)...)
	}
	return out
}

// emit flattens a survivor's children inside their own scope, attaches
// them, and returns the node followed by the children unless collapsed.
func emit(p *tree.Node, collapsed map[string]bool, visitors []Visitor) []*tree.Node {
	restore := enterScope(visitors)
	kids := Flatten(p.Children, collapsed, visitors)
	restore()
	p.Children = kids
	out := []*tree.Node{p}
	if collapsed == nil || !collapsed[p.ID] {
		out = append(out, kids...)
	}
	return out
}

// Apply restructures the forest through the visitor chain and returns
// the surviving top-level nodes with their (recursively rewritten)
// children still attached. It is the composition step between grouping
// stages: each stage's forest feeds the next, and only the final stage
// is flattened for rendering.
func Apply(forest []*tree.Node, visitors []Visitor) []*tree.Node {
	var out []*tree.Node
	for _, n := range forest {
		for _, p := range runChain(n, visitors) {
			restore := enterScope(visitors)
			p.Children = Apply(p.Children, visitors)
			restore()
			out = append(out, p)
		}
	}
	for _, p := range flush(visitors) {
		p.Children = Apply(p.Children, visitors)
		out = append(out, p)
	}
	return out
}

// runChain feeds a copy of the node through every visitor in order; the
// output of visitor k is the input of visitor k+1.
func runChain(n *tree.Node, visitors []Visitor) []*tree.Node {
	pending := []*tree.Node{n.Copy()}
	for _, v := range visitors {
		next := make([]*tree.Node, 0, len(pending))
		for _, p := range pending {
			next = append(next, v.Visit(p)...)
		}
		pending = next
	}
	return pending
}

func enterScope(visitors []Visitor) func() {
	var restores []func()
	for _, v := range visitors {
		if s, ok := v.(Scoped); ok {
			restores = append(restores, s.EnterScope())
		}
	}
	return func() {
		for _, r := range restores {
			r()
		}
	}
}

func flush(visitors []Visitor) []*tree.Node {
	var out []*tree.Node
	for _, v := range visitors {
		if f, ok := v.(Flusher); ok {
			out = append(out, f.Flush()...)
		}
	}
	return out
}
