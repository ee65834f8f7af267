// Package event defines the evaluation-log event union consumed by the
// transcript pipeline. Events arrive as a flat, time-ordered JSONL
// stream written by the evaluation runtime; every line is one event
// tagged by its "event" field. The pipeline only interprets the fields
// declared here — everything else on the line is carried opaquely so
// rendering layers can still show it.
package event

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the event union.
type Kind string

const (
	KindModel       Kind = "model"
	KindTool        Kind = "tool"
	KindSpanBegin   Kind = "span_begin"
	KindSpanEnd     Kind = "span_end"
	KindStep        Kind = "step"
	KindScore       Kind = "score"
	KindSandbox     Kind = "sandbox"
	KindApproval    Kind = "approval"
	KindState       Kind = "state"
	KindStore       Kind = "store"
	KindSampleInit  Kind = "sample_init"
	KindSampleLimit Kind = "sample_limit"
	KindSubtask     Kind = "subtask"
	KindError       Kind = "error"
	KindInfo        Kind = "info"
	KindLogger      Kind = "logger"
	KindInput       Kind = "input"
)

// Step actions.
const (
	ActionBegin = "begin"
	ActionEnd   = "end"
)

// Span/step types the tree transformers and outline visitors key on.
const (
	TypeTool    = "tool"
	TypeSubtask = "subtask"
	TypeSolver  = "solver"
	TypeSolvers = "solvers"
	TypeAgent   = "agent"
	TypeHandoff = "handoff"
	TypeScorers = "scorers"
	TypeScorer  = "scorer"
	TypeTurn    = "turn"
	TypeTurns   = "turns"
	TypeScoring = "scoring"
)

// SandboxWrapperName is the reserved sentinel name carried by the
// synthetic begin/end pair that groups consecutive sandbox events.
// Downstream code recognizes it for pretty-labeling and removal; it is
// never produced by the evaluation runtime itself.
const SandboxWrapperName = "sandbox_events"

// Names recognized as the sample-initialization step.
const (
	InitStepName       = "init"
	SampleInitStepName = "sample_init"
)

// SystemMessageStepName marks the solver step that installs the system
// message; it defaults to collapsed in the viewer.
const SystemMessageStepName = "system_message"

// Event is one entry in the transcript stream. A single struct carries
// the union: Kind selects which of the optional fields are meaningful.
// Timestamps are kept as the ISO-8601 strings the runtime writes, which
// compare correctly as plain strings.
type Event struct {
	Kind         Kind    `json:"event"`
	Timestamp    string  `json:"timestamp,omitempty"`
	Pending      bool    `json:"pending,omitempty"`
	WorkingStart float64 `json:"working_start,omitempty"`
	SpanID       string  `json:"span_id,omitempty"`

	// step (Action, Name, Type); sandbox reuses Action ("exec",
	// "read_file", "write_file"); span_begin and subtask reuse Name
	// and Type; sample_limit reuses Type.
	Action string `json:"action,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`

	// span_begin carries ID and ParentID; span_end carries ID only;
	// tool reuses ID for the call id.
	ID       string `json:"id,omitempty"`
	ParentID string `json:"parent_id,omitempty"`

	// model
	Model string `json:"model,omitempty"`
	Role  string `json:"role,omitempty"`

	// tool
	Function string `json:"function,omitempty"`
	Agent    string `json:"agent,omitempty"`
	Failed   bool   `json:"failed,omitempty"`

	// sandbox
	Cmd  string `json:"cmd,omitempty"`
	File string `json:"file,omitempty"`

	// score
	Intermediate bool `json:"intermediate,omitempty"`

	// error / info / sample_limit
	Message string `json:"message,omitempty"`

	// Raw preserves the original line for fields the pipeline does
	// not interpret (sample payloads, model IO, change lists). Nil
	// for synthetic events.
	Raw json.RawMessage `json:"-"`
}

// DecodeLine parses one JSONL line into an Event, keeping the original
// bytes attached. Unknown kinds decode without error; they pass through
// the pipeline unmatched by every rule.
func DecodeLine(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind == "" {
		return Event{}, fmt.Errorf("decode event: missing event discriminant")
	}
	ev.Raw = append(json.RawMessage(nil), line...)
	return ev, nil
}

// StepBegin reports whether the event opens a step region.
func (e Event) StepBegin() bool {
	return e.Kind == KindStep && e.Action == ActionBegin
}

// StepEnd reports whether the event closes a step region.
func (e Event) StepEnd() bool {
	return e.Kind == KindStep && e.Action == ActionEnd
}

// InitStep reports whether the event is a step named as the
// sample-initialization phase.
func (e Event) InitStep() bool {
	return e.Kind == KindStep && (e.Name == InitStepName || e.Name == SampleInitStepName)
}

// Summary returns a one-line human label for the event, used by the
// terminal renderer and the MCP text output.
func (e Event) Summary() string {
	switch e.Kind {
	case KindModel:
		if e.Model != "" {
			return "model: " + e.Model
		}
		return "model"
	case KindTool:
		label := "tool"
		if e.Function != "" {
			label = "tool: " + e.Function
		}
		if e.Agent != "" {
			label += " → " + e.Agent
		}
		if e.Failed {
			label += " (failed)"
		}
		return label
	case KindStep:
		if e.Name == SandboxWrapperName {
			return "sandbox events"
		}
		return e.Name
	case KindSpanBegin:
		if e.Name == SandboxWrapperName {
			return "sandbox events"
		}
		if e.Type == TypeTurn || e.Type == TypeTurns {
			return e.Name
		}
		if e.Name != "" {
			return e.Name
		}
		return e.Type
	case KindScore:
		if e.Intermediate {
			return "score (intermediate)"
		}
		return "score"
	case KindSandbox:
		switch e.Action {
		case "exec":
			return "sandbox: " + e.Cmd
		case "read_file", "write_file":
			return "sandbox: " + e.Action + " " + e.File
		}
		return "sandbox"
	case KindSampleInit:
		return "sample init"
	case KindSampleLimit:
		if e.Message != "" {
			return "limit: " + e.Message
		}
		return "limit: " + e.Type
	case KindSubtask:
		return "subtask: " + e.Name
	case KindError:
		if e.Message != "" {
			return "error: " + e.Message
		}
		return "error"
	case KindApproval:
		return "approval"
	case KindState:
		return "state"
	case KindStore:
		return "store"
	case KindInfo:
		return "info"
	case KindLogger:
		return "log"
	case KindInput:
		return "input"
	}
	return string(e.Kind)
}
