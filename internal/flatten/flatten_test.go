package flatten

import (
	"testing"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/tree"
)

func node(id string, depth int, ev event.Event, children ...*tree.Node) *tree.Node {
	return &tree.Node{ID: id, Event: ev, Depth: depth, Children: children}
}

func sampleForest() []*tree.Node {
	return []*tree.Node{
		node("0", 0, event.Event{Kind: event.KindStep, Name: "solve", Action: event.ActionBegin},
			node("0.0", 1, event.Event{Kind: event.KindModel}),
			node("0.1", 1, event.Event{Kind: event.KindTool, Function: "bash"}),
		),
		node("1", 0, event.Event{Kind: event.KindScore}),
	}
}

func ids(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlattenNoVisitorsIncludesEverything(t *testing.T) {
	got := Flatten(sampleForest(), nil, nil)
	want := []string{"0", "0.0", "0.1", "1"}
	if !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestFlattenCollapseSuppression(t *testing.T) {
	collapsed := map[string]bool{"0": true}
	got := Flatten(sampleForest(), collapsed, nil)
	want := []string{"0", "1"}
	if !equal(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestFlattenMissingEntryMeansExpanded(t *testing.T) {
	got := Flatten(sampleForest(), map[string]bool{}, nil)
	if !equal(ids(got), []string{"0", "0.0", "0.1", "1"}) {
		t.Fatalf("empty map must behave as fully expanded, got %v", ids(got))
	}
}

func TestFlattenIdempotent(t *testing.T) {
	collapsed := map[string]bool{"0": true}
	first := Flatten(sampleForest(), collapsed, []Visitor{RemoveKind(event.KindScore)})
	second := Flatten(sampleForest(), collapsed, []Visitor{RemoveKind(event.KindScore)})
	if !equal(ids(first), ids(second)) {
		t.Fatalf("flatten is not idempotent: %v vs %v", ids(first), ids(second))
	}
}

func TestRemoveKindDropsSubtree(t *testing.T) {
	forest := []*tree.Node{
		node("0", 0, event.Event{Kind: event.KindState},
			node("0.0", 1, event.Event{Kind: event.KindModel}),
		),
		node("1", 0, event.Event{Kind: event.KindModel}),
	}
	got := Flatten(forest, nil, []Visitor{RemoveKind(event.KindState)})
	if !equal(ids(got), []string{"1"}) {
		t.Fatalf("removal must drop the whole subtree, got %v", ids(got))
	}
}

func TestRemoveNamed(t *testing.T) {
	forest := []*tree.Node{
		node("0", 0, event.Event{Kind: event.KindStep, Name: event.SandboxWrapperName},
			node("0.0", 1, event.Event{Kind: event.KindSandbox}),
		),
		node("1", 0, event.Event{Kind: event.KindStep, Name: "solve"}),
	}
	got := Flatten(forest, nil, []Visitor{RemoveNamed(event.SandboxWrapperName)})
	if !equal(ids(got), []string{"1"}) {
		t.Fatalf("sentinel wrapper must be removed, got %v", ids(got))
	}
}

func TestVisitorSplit(t *testing.T) {
	split := visitorFunc(func(n *tree.Node) []*tree.Node {
		if n.Event.Kind == event.KindModel {
			twin := n.Copy()
			twin.ID = n.ID + "-twin"
			return []*tree.Node{n, twin}
		}
		return []*tree.Node{n}
	})
	forest := []*tree.Node{node("0", 0, event.Event{Kind: event.KindModel})}
	got := Flatten(forest, nil, []Visitor{split})
	if !equal(ids(got), []string{"0", "0-twin"}) {
		t.Fatalf("split visitor output wrong: %v", ids(got))
	}
}

func TestVisitorChainOrder(t *testing.T) {
	// The second visitor must see the first visitor's output.
	rename := visitorFunc(func(n *tree.Node) []*tree.Node {
		c := n.Copy()
		c.Event.Name = "renamed"
		return []*tree.Node{c}
	})
	dropRenamed := visitorFunc(func(n *tree.Node) []*tree.Node {
		if n.Event.Name == "renamed" {
			return nil
		}
		return []*tree.Node{n}
	})
	forest := []*tree.Node{node("0", 0, event.Event{Kind: event.KindInfo})}
	if got := Flatten(forest, nil, []Visitor{rename, dropRenamed}); len(got) != 0 {
		t.Fatalf("chain order broken: %v", ids(got))
	}
}

func TestFlattenDoesNotMutateInput(t *testing.T) {
	forest := sampleForest()
	rename := visitorFunc(func(n *tree.Node) []*tree.Node {
		n.Event.Name = "changed"
		return []*tree.Node{n}
	})
	Flatten(forest, nil, []Visitor{rename})
	if forest[0].Event.Name != "solve" {
		t.Error("visitor mutation leaked into the input forest")
	}
}

func TestNoScorerChildren(t *testing.T) {
	forest := []*tree.Node{
		node("0", 0, event.Event{Kind: event.KindSpanBegin, Name: "scorers", Type: event.TypeScorers},
			node("0.0", 1, event.Event{Kind: event.KindSpanBegin, Name: "accuracy", Type: event.TypeScorer},
				node("0.0.0", 2, event.Event{Kind: event.KindInfo}),
				node("0.0.1", 2, event.Event{Kind: event.KindState}),
			),
		),
		node("1", 0, event.Event{Kind: event.KindModel}),
	}
	got := Flatten(forest, nil, []Visitor{NoScorerChildren()})
	if !equal(ids(got), []string{"0", "0.0", "1"}) {
		t.Fatalf("scorer children must be suppressed, got %v", ids(got))
	}
	for _, n := range got {
		if n.ID == "0.0" && len(n.Children) != 0 {
			t.Errorf("scorer node should survive with zero children, got %d", len(n.Children))
		}
	}
}

func TestNoScorerChildrenOutsideScorersUntouched(t *testing.T) {
	forest := []*tree.Node{
		node("0", 0, event.Event{Kind: event.KindSpanBegin, Name: "accuracy", Type: event.TypeScorer},
			node("0.0", 1, event.Event{Kind: event.KindInfo}),
		),
	}
	got := Flatten(forest, nil, []Visitor{NoScorerChildren()})
	if !equal(ids(got), []string{"0", "0.0"}) {
		t.Fatalf("a scorer outside a scorers span must keep its children, got %v", ids(got))
	}
}

func TestFlattenBufferedRunStaysInItsScope(t *testing.T) {
	forest := []*tree.Node{
		node("0", 0, event.Event{Kind: event.KindModel}),
		node("1", 0, event.Event{Kind: event.KindStep, Name: "solve", Action: event.ActionBegin},
			node("1.0", 1, event.Event{Kind: event.KindInfo}),
		),
		node("2", 0, event.Event{Kind: event.KindModel}),
	}
	got := Flatten(forest, nil, []Visitor{&bufferModels{}})
	want := []string{"1", "1.0", "0", "2"}
	if !equal(ids(got), want) {
		t.Fatalf("buffered siblings leaked into a child scope: got %v, want %v", ids(got), want)
	}
}

// visitorFunc adapts a function to the Visitor interface for tests.
type visitorFunc func(*tree.Node) []*tree.Node

func (f visitorFunc) Visit(n *tree.Node) []*tree.Node { return f(n) }

// bufferModels holds model events until its scope flushes, without
// closing on boundary nodes, so a scope leak would surface as models
// emitted under an unrelated sibling.
type bufferModels struct {
	run []*tree.Node
}

func (v *bufferModels) Visit(n *tree.Node) []*tree.Node {
	if n.Event.Kind == event.KindModel {
		v.run = append(v.run, n)
		return nil
	}
	return []*tree.Node{n}
}

func (v *bufferModels) Flush() []*tree.Node {
	out := v.run
	v.run = nil
	return out
}

func (v *bufferModels) EnterScope() func() {
	run := v.run
	v.run = nil
	return func() { v.run = run }
}
