package outline

import (
	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/fixup"
	"github.com/ppiankov/runlens/internal/flatten"
	"github.com/ppiankov/runlens/internal/tree"
)

// Transcript produces the full render-ready sequence for a sample:
// fixups, tree construction, and collapse-aware flattening with no
// grouping. running=true keeps the latest pending event per kind
// visible; running=false drops pending events outright.
func Transcript(events []event.Event, running bool, collapsed map[string]bool) []*tree.Node {
	forest := Forest(events, running)
	return flatten.Flatten(forest, collapsed, nil)
}

// Outline produces the summary view: structural noise pruned, model
// exchanges grouped into turns, consecutive turns and scorings folded
// into counted summaries. Each grouping stage consumes the previous
// stage's forest; only the final forest is flattened for rendering.
func Outline(events []event.Event, running bool, collapsed map[string]bool) []*tree.Node {
	forest := Forest(events, running)
	forest = flatten.Apply(forest, []flatten.Visitor{
		flatten.RemoveKind(event.KindState),
		flatten.RemoveKind(event.KindStore),
		flatten.RemoveKind(event.KindLogger),
		flatten.RemoveKind(event.KindInfo),
		flatten.RemoveNamed(event.SandboxWrapperName),
		flatten.NoScorerChildren(),
	})
	forest = flatten.Apply(forest, []flatten.Visitor{MakeTurns()})
	forest = flatten.Apply(forest, []flatten.Visitor{CollapseTurns()})
	forest = flatten.Apply(forest, []flatten.Visitor{CollapseScoring()})
	return flatten.Flatten(forest, collapsed, nil)
}

// Forest runs fixups and tree construction without flattening; callers
// that seed collapse state need the tree shape before rendering it.
func Forest(events []event.Event, running bool) []*tree.Node {
	return tree.Treeify(fixup.Fixup(events, !running), 0)
}

// Policy controls which regions start collapsed the first time a
// sample is viewed.
type Policy struct {
	System  bool `yaml:"system"`
	Init    bool `yaml:"init"`
	Sandbox bool `yaml:"sandbox"`
}

// DefaultPolicy collapses everything the viewer treats as preamble.
func DefaultPolicy() Policy {
	return Policy{System: true, Init: true, Sandbox: true}
}

// DefaultCollapsed seeds initial collapse state for a forest: system
// message steps, the sandbox wrapper, and the init step default to
// collapsed. The result is handed to the view-state store once, then
// the user's toggles take over.
func DefaultCollapsed(forest []*tree.Node, policy Policy) map[string]bool {
	collapsed := make(map[string]bool)
	tree.Walk(forest, func(n *tree.Node) {
		ev := n.Event
		if ev.Kind != event.KindStep && ev.Kind != event.KindSpanBegin {
			return
		}
		switch {
		case policy.Init && (ev.Name == event.InitStepName || ev.Name == event.SampleInitStepName):
			collapsed[n.ID] = true
		case policy.Sandbox && ev.Name == event.SandboxWrapperName:
			collapsed[n.ID] = true
		case policy.System && ev.Name == event.SystemMessageStepName:
			collapsed[n.ID] = true
		}
	})
	return collapsed
}
