package tree

import (
	"strconv"

	"github.com/ppiankov/runlens/internal/event"
)

// Treeify turns a fixed-up flat event list into a forest. If any
// span_begin is present the stream is span-based: step events are
// discarded as redundant and spans alone establish nesting, with the
// transformer post-pass applied before returning. Otherwise step
// begin/end pairs nest. Malformed nesting never fails: an end with no
// matching open is a no-op and unclosed opens keep their accumulated
// children.
func Treeify(events []event.Event, baseDepth int) []*Node {
	for _, ev := range events {
		if ev.Kind == event.KindSpanBegin {
			return Transform(treeifySpans(events, baseDepth))
		}
	}
	return treeifySteps(events, baseDepth)
}

// builder tracks the construction stack and assigns positional ids:
// root nodes get their ordinal, children get parent.id + "." + ordinal.
type builder struct {
	baseDepth int
	roots     []*Node
	stack     []*Node
}

func (b *builder) add(ev event.Event) *Node {
	n := &Node{Event: ev, Depth: b.baseDepth + len(b.stack)}
	if len(b.stack) == 0 {
		n.ID = strconv.Itoa(len(b.roots))
		b.roots = append(b.roots, n)
	} else {
		parent := b.stack[len(b.stack)-1]
		n.ID = parent.ID + "." + strconv.Itoa(len(parent.Children))
		parent.Children = append(parent.Children, n)
	}
	return n
}

func (b *builder) push(ev event.Event) {
	b.stack = append(b.stack, b.add(ev))
}

func (b *builder) pop() {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func treeifySteps(events []event.Event, baseDepth int) []*Node {
	b := &builder{baseDepth: baseDepth}
	for _, ev := range events {
		switch {
		case ev.StepBegin():
			b.push(ev)
		case ev.StepEnd():
			b.pop()
		case ev.Kind == event.KindSpanEnd:
			// An end marker is never content. Without a span_begin the
			// stream is step-based, so a stray span_end is an excess
			// end and drops.
		default:
			b.add(ev)
		}
	}
	return b.roots
}

func treeifySpans(events []event.Event, baseDepth int) []*Node {
	b := &builder{baseDepth: baseDepth}
	for _, ev := range events {
		switch ev.Kind {
		case event.KindStep:
			// Legacy signal, redundant once spans are present.
		case event.KindSpanBegin:
			b.push(ev)
		case event.KindSpanEnd:
			// Only pop the open span this end actually closes; an
			// end for anything else is treated like an excess end.
			if len(b.stack) > 0 && b.stack[len(b.stack)-1].Event.ID == ev.ID {
				b.pop()
			}
		default:
			b.add(ev)
		}
	}
	return b.roots
}
