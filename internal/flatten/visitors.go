package flatten

import (
	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/tree"
)

// RemoveKind returns a visitor that deletes every node of the given
// event kind, subtree included.
func RemoveKind(kind event.Kind) Visitor {
	return &removeKind{kind: kind}
}

type removeKind struct {
	kind event.Kind
}

func (v *removeKind) Visit(n *tree.Node) []*tree.Node {
	if n.Event.Kind == v.kind {
		return nil
	}
	return []*tree.Node{n}
}

// RemoveNamed returns a visitor that deletes step and span nodes
// carrying the given reserved name (e.g. the sandbox sentinel).
func RemoveNamed(name string) Visitor {
	return &removeNamed{name: name}
}

type removeNamed struct {
	name string
}

func (v *removeNamed) Visit(n *tree.Node) []*tree.Node {
	if (n.Event.Kind == event.KindStep || n.Event.Kind == event.KindSpanBegin) && n.Event.Name == v.name {
		return nil
	}
	return []*tree.Node{n}
}

// NoScorerChildren returns a visitor that suppresses the immediate
// children of each scorer step/span nested inside a scorers span,
// leaving the scorer node itself (and everything outside it) intact.
// The visitor tracks where it is in document order, so construct a
// fresh one per pipeline invocation.
func NoScorerChildren() Visitor {
	return &noScorerChildren{scorersDepth: -1, scorerDepth: -1}
}

type noScorerChildren struct {
	scorersDepth int
	scorerDepth  int
}

func (v *noScorerChildren) Visit(n *tree.Node) []*tree.Node {
	// Leaving a region resets its marker before the node is examined.
	if v.scorerDepth >= 0 && n.Depth <= v.scorerDepth {
		v.scorerDepth = -1
	}
	if v.scorersDepth >= 0 && n.Depth <= v.scorersDepth {
		v.scorersDepth = -1
	}

	typ := n.Event.Type
	isGrouping := n.Event.Kind == event.KindStep || n.Event.Kind == event.KindSpanBegin
	switch {
	case isGrouping && typ == event.TypeScorers:
		v.scorersDepth = n.Depth
	case isGrouping && typ == event.TypeScorer && v.scorersDepth >= 0:
		v.scorerDepth = n.Depth
	case v.scorerDepth >= 0 && n.Depth == v.scorerDepth+1:
		return nil
	}
	return []*tree.Node{n}
}
