// Package fixup normalizes a raw transcript event stream before tree
// construction. The three phases are independent pure functions; Fixup
// composes them in the one order that is safe, since init synthesis and
// sandbox grouping index into the list by position and would be
// corrupted by later removals.
package fixup

import (
	"fmt"

	"github.com/ppiankov/runlens/internal/event"
)

// Fixup runs the full normalization pipeline: pending collapse, then
// init-step synthesis, then sandbox grouping.
func Fixup(events []event.Event, filterPending bool) []event.Event {
	out := CollapsePending(events, filterPending)
	out = SynthesizeInitStep(out)
	return GroupSandboxEvents(out)
}

// CollapsePending handles live-run partial events. With filterPending
// true every pending event is dropped (the run has finished, only final
// events matter). Otherwise runs of consecutive pending events of the
// same kind collapse to their most recent one, so a live view shows a
// single in-flight event per kind instead of every superseded partial.
func CollapsePending(events []event.Event, filterPending bool) []event.Event {
	out := make([]event.Event, 0, len(events))
	for i, ev := range events {
		if !ev.Pending {
			out = append(out, ev)
			continue
		}
		if filterPending {
			continue
		}
		// Superseded by the next pending event of the same kind.
		if i+1 < len(events) && events[i+1].Pending && events[i+1].Kind == ev.Kind {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// SynthesizeInitStep wraps the sample_init event in a synthetic
// begin/end step pair so the initialization phase is collapsible even
// when the source omitted the boundary. Skipped when the stream is
// span-based (spans express structure explicitly) or when an init step
// already exists.
func SynthesizeInitStep(events []event.Event) []event.Event {
	initIdx := -1
	for i, ev := range events {
		switch {
		case ev.Kind == event.KindSpanBegin:
			return events
		case ev.InitStep():
			return events
		case ev.Kind == event.KindSampleInit && initIdx < 0:
			initIdx = i
		}
	}
	if initIdx < 0 {
		return events
	}

	initEv := events[initIdx]
	step := event.Event{
		Kind:         event.KindStep,
		Timestamp:    initEv.Timestamp,
		WorkingStart: initEv.WorkingStart,
		SpanID:       initEv.SpanID,
		Name:         event.SampleInitStepName,
	}

	out := make([]event.Event, 0, len(events)+2)
	out = append(out, events[:initIdx]...)
	begin := step
	begin.Action = event.ActionBegin
	out = append(out, begin, initEv)
	end := step
	end.Action = event.ActionEnd
	out = append(out, end)
	out = append(out, events[initIdx+1:]...)
	return out
}

// GroupSandboxEvents wraps each maximal run of consecutive sandbox
// events in a synthetic begin/end pair carrying the reserved sentinel
// name: a step pair on step-based streams, a span pair on span-based
// ones. Wrappers take the last sandbox event's timestamp.
func GroupSandboxEvents(events []event.Event) []event.Event {
	spanBased := false
	for _, ev := range events {
		if ev.Kind == event.KindSpanBegin {
			spanBased = true
			break
		}
	}

	out := make([]event.Event, 0, len(events))
	var run []event.Event

	flush := func(startIdx int) {
		if len(run) == 0 {
			return
		}
		last := run[len(run)-1]
		if spanBased {
			id := fmt.Sprintf("sandbox-%d", startIdx)
			out = append(out, event.Event{
				Kind:         event.KindSpanBegin,
				Timestamp:    last.Timestamp,
				WorkingStart: last.WorkingStart,
				ID:           id,
				Name:         event.SandboxWrapperName,
			})
			out = append(out, run...)
			out = append(out, event.Event{
				Kind:         event.KindSpanEnd,
				Timestamp:    last.Timestamp,
				WorkingStart: last.WorkingStart,
				ID:           id,
			})
		} else {
			out = append(out, event.Event{
				Kind:         event.KindStep,
				Timestamp:    last.Timestamp,
				WorkingStart: last.WorkingStart,
				Action:       event.ActionBegin,
				Name:         event.SandboxWrapperName,
			})
			out = append(out, run...)
			out = append(out, event.Event{
				Kind:         event.KindStep,
				Timestamp:    last.Timestamp,
				WorkingStart: last.WorkingStart,
				Action:       event.ActionEnd,
				Name:         event.SandboxWrapperName,
			})
		}
		run = nil
	}

	runStart := -1
	for i, ev := range events {
		if ev.Kind == event.KindSandbox {
			if len(run) == 0 {
				runStart = i
			}
			run = append(run, ev)
			continue
		}
		flush(runStart)
		out = append(out, ev)
	}
	flush(runStart)
	return out
}
