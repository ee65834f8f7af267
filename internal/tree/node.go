// Package tree builds the transcript event forest and rewrites it into
// its presentable shape. Construction assigns positional ids used as
// collapse-state keys and virtualization row keys, so every rewrite
// that replaces a node keeps the replaced node's id.
package tree

import (
	"github.com/ppiankov/runlens/internal/event"
)

// Node is one unit of the transcript forest.
type Node struct {
	ID       string      `json:"id"`
	Event    event.Event `json:"event"`
	Depth    int         `json:"depth"`
	Children []*Node     `json:"children,omitempty"`
}

// Copy returns a shallow copy of the node with its own child slice.
// Rewrites work on copies so nodes already emitted to an earlier part
// of a walk are never mutated.
func (n *Node) Copy() *Node {
	c := &Node{ID: n.ID, Event: n.Event, Depth: n.Depth}
	if len(n.Children) > 0 {
		c.Children = append(make([]*Node, 0, len(n.Children)), n.Children...)
	}
	return c
}

// Walk visits every node in the forest in document order.
func Walk(forest []*Node, fn func(*Node)) {
	for _, n := range forest {
		fn(n)
		Walk(n.Children, fn)
	}
}

// Reparent returns a copy of the node moved to the given depth, with
// every descendant renormalized so child depth is always parent
// depth + 1.
func Reparent(n *Node, depth int) *Node {
	c := &Node{ID: n.ID, Event: n.Event, Depth: depth}
	for _, child := range n.Children {
		c.Children = append(c.Children, Reparent(child, depth+1))
	}
	return c
}
