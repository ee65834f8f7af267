package render

import (
	"strings"
	"testing"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/flatten"
	"github.com/ppiankov/runlens/internal/tree"
)

func TestRowsIndentAndMarkers(t *testing.T) {
	forest := []*tree.Node{
		{
			ID:    "0",
			Event: event.Event{Kind: event.KindStep, Action: event.ActionBegin, Name: "plan"},
			Children: []*tree.Node{
				{ID: "0.0", Depth: 1, Event: event.Event{Kind: event.KindModel, Model: "gpt-4"}},
			},
		},
		{
			ID:    "1",
			Event: event.Event{Kind: event.KindStep, Action: event.ActionBegin, Name: "act"},
			Children: []*tree.Node{
				{ID: "1.0", Depth: 1, Event: event.Event{Kind: event.KindTool, Function: "bash"}},
			},
		},
	}
	collapsed := map[string]bool{"1": true}
	rows := flatten.Flatten(forest, collapsed, nil)

	got := Rows(rows, collapsed, Options{})
	want := strings.Join([]string{
		"▾ plan",
		"    model: gpt-4",
		"▸ act",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRowsIndentWidth(t *testing.T) {
	rows := []*tree.Node{
		{ID: "0", Depth: 2, Event: event.Event{Kind: event.KindInfo}},
	}
	got := Rows(rows, nil, Options{Indent: 4})
	if !strings.HasPrefix(got, strings.Repeat(" ", 8)+"  info") {
		t.Errorf("wrong indentation: %q", got)
	}
}

func TestRowsColor(t *testing.T) {
	rows := []*tree.Node{
		{ID: "0", Event: event.Event{Kind: event.KindError, Message: "boom"}},
		{ID: "1", Event: event.Event{Kind: event.KindModel, Model: "m"}},
	}
	got := Rows(rows, nil, Options{Color: true})
	if !strings.Contains(got, "\033[0;31merror: boom\033[0m") {
		t.Errorf("error row not colored: %q", got)
	}
	if strings.Contains(got, "\033[0;31mmodel") {
		t.Errorf("model row should not be red: %q", got)
	}
	plain := Rows(rows, nil, Options{})
	if strings.Contains(plain, "\033[") {
		t.Errorf("color disabled but escapes present: %q", plain)
	}
}

func TestRowsElapsedColumn(t *testing.T) {
	rows := []*tree.Node{
		{ID: "0", Event: event.Event{Kind: event.KindModel, Model: "m", WorkingStart: 12.34}},
		{ID: "1", Event: event.Event{Kind: event.KindScore}},
	}
	got := Rows(rows, nil, Options{Elapsed: true})
	if !strings.Contains(got, "model: m  [12.3s]") {
		t.Errorf("missing elapsed column: %q", got)
	}
	if strings.Contains(got, "score  [") {
		t.Errorf("elapsed shown for event without working time: %q", got)
	}
}
