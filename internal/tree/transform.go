package tree

import (
	"github.com/ppiankov/runlens/internal/event"
)

// A rule matches a node shape and rewrites it. Rules are tried in
// declaration order and the first match wins; at most one rule fires
// per node. Rewrites build fresh nodes and never mutate their input.
type rule struct {
	name    string
	match   func(*Node) bool
	rewrite func(*Node) []*Node
}

var rules = []rule{
	{
		name:    "unwrap_tool_span",
		match:   matchWrapperSpan(event.TypeTool, event.KindTool),
		rewrite: unwrapWrapperSpan(event.KindTool),
	},
	{
		name:    "unwrap_subtask_span",
		match:   matchWrapperSpan(event.TypeSubtask, event.KindSubtask),
		rewrite: unwrapWrapperSpan(event.KindSubtask),
	},
	{
		name:    "unwrap_solver_agent_state",
		match:   matchSolverAgent(false),
		rewrite: unwrapSolverAgent,
	},
	{
		name:    "unwrap_solver_agent_state_store",
		match:   matchSolverAgent(true),
		rewrite: unwrapSolverAgent,
	},
	{
		name:    "unwrap_handoff",
		match:   matchHandoff,
		rewrite: unwrapHandoff,
	},
	{
		name:    "discard_solvers_group",
		match:   func(n *Node) bool { return spanOfType(n, event.TypeSolvers) },
		rewrite: spliceChildren,
	},
}

// Transform applies the rewrite rules to the forest in a depth-first,
// bottom-up, single pass: children first, then the first matching rule
// replaces the node. Nodes no rule matches pass through untouched.
func Transform(forest []*Node) []*Node {
	out := make([]*Node, 0, len(forest))
	for _, n := range forest {
		out = append(out, transformNode(n)...)
	}
	return out
}

func transformNode(n *Node) []*Node {
	m := &Node{ID: n.ID, Event: n.Event, Depth: n.Depth}
	for _, c := range n.Children {
		m.Children = append(m.Children, transformNode(c)...)
	}
	for _, r := range rules {
		if r.match(m) {
			return r.rewrite(m)
		}
	}
	return []*Node{m}
}

func spanOfType(n *Node, typ string) bool {
	return n.Event.Kind == event.KindSpanBegin && n.Event.Type == typ
}

// matchWrapperSpan matches a span of the given type holding exactly one
// child event of the given kind. A wrapper span without its payload is
// an unexpected producer shape and is deliberately left unrewritten.
func matchWrapperSpan(typ string, kind event.Kind) func(*Node) bool {
	return func(n *Node) bool {
		if !spanOfType(n, typ) {
			return false
		}
		count := 0
		for _, c := range n.Children {
			if c.Event.Kind == kind {
				count++
			}
		}
		return count == 1
	}
}

// unwrapWrapperSpan promotes the payload child into the span's place,
// keeping the span's id and depth, and reparents the remaining former
// siblings (after the payload's own children) under the promoted node.
func unwrapWrapperSpan(kind event.Kind) func(*Node) []*Node {
	return func(n *Node) []*Node {
		var payload *Node
		rest := make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			if payload == nil && c.Event.Kind == kind {
				payload = c
				continue
			}
			rest = append(rest, c)
		}
		promoted := &Node{ID: n.ID, Event: payload.Event, Depth: n.Depth}
		for _, c := range payload.Children {
			promoted.Children = append(promoted.Children, Reparent(c, n.Depth+1))
		}
		for _, c := range rest {
			promoted.Children = append(promoted.Children, Reparent(c, n.Depth+1))
		}
		return []*Node{promoted}
	}
}

// matchSolverAgent matches the solver wrapper the runtime emits around
// a lone agent: an agent span plus a trailing state event, optionally
// followed by a store event.
func matchSolverAgent(withStore bool) func(*Node) bool {
	return func(n *Node) bool {
		if !spanOfType(n, event.TypeSolver) {
			return false
		}
		want := 2
		if withStore {
			want = 3
		}
		if len(n.Children) != want {
			return false
		}
		if !spanOfType(n.Children[0], event.TypeAgent) {
			return false
		}
		if n.Children[1].Event.Kind != event.KindState {
			return false
		}
		if withStore && n.Children[2].Event.Kind != event.KindStore {
			return false
		}
		return true
	}
}

// unwrapSolverAgent discards the solver wrapper: the agent span takes
// the solver's id and depth, its own children move up one level, and
// the trailing state/store events stay behind them as siblings.
func unwrapSolverAgent(n *Node) []*Node {
	agent := n.Children[0]
	promoted := &Node{ID: n.ID, Event: agent.Event, Depth: n.Depth}
	for _, c := range agent.Children {
		promoted.Children = append(promoted.Children, Reparent(c, n.Depth+1))
	}
	for _, c := range n.Children[1:] {
		promoted.Children = append(promoted.Children, Reparent(c, n.Depth+1))
	}
	return []*Node{promoted}
}

// matchHandoff matches the two shapes a handoff span takes: a sole
// agent-handoff tool call, or that tool call (already wrapping an agent
// span plus two trailing events) followed by a store event.
func matchHandoff(n *Node) bool {
	if !spanOfType(n, event.TypeHandoff) {
		return false
	}
	switch len(n.Children) {
	case 1:
		c := n.Children[0]
		return c.Event.Kind == event.KindTool && c.Event.Agent != ""
	case 2:
		c := n.Children[0]
		if c.Event.Kind != event.KindTool || n.Children[1].Event.Kind != event.KindStore {
			return false
		}
		return len(c.Children) == 3 && spanOfType(c.Children[0], event.TypeAgent)
	}
	return false
}

// unwrapHandoff collapses both handoff shapes to the innermost content:
// the tool call's children spliced in at the handoff's depth, two
// levels up from where they sat.
func unwrapHandoff(n *Node) []*Node {
	tool := n.Children[0]
	out := make([]*Node, 0, len(tool.Children))
	for _, c := range tool.Children {
		out = append(out, Reparent(c, n.Depth))
	}
	return out
}

// spliceChildren removes the node entirely, hoisting its children to
// its own depth.
func spliceChildren(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, Reparent(c, n.Depth))
	}
	return out
}
