package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/logfile"
	"github.com/ppiankov/runlens/internal/outline"
	"github.com/ppiankov/runlens/internal/render"
)

// LogsInput defines parameters for the runlens_logs tool.
type LogsInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"directory to scan, defaults to the configured log dir"`
}

// LogsOutput lists available evaluation logs.
type LogsOutput struct {
	Logs []string `json:"logs"`
}

// OutlineInput defines parameters for the runlens_outline tool.
type OutlineInput struct {
	Log string `json:"log" jsonschema:"log name or path to an eval log file"`
}

// OutlineOutput carries the rendered outline.
type OutlineOutput struct {
	Text    string `json:"text"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped,omitempty"`
}

// TranscriptInput defines parameters for the runlens_transcript tool.
type TranscriptInput struct {
	Log    string `json:"log" jsonschema:"log name or path to an eval log file"`
	Expand bool   `json:"expand,omitempty" jsonschema:"expand regions that default to collapsed"`
}

// TranscriptOutput carries the rendered transcript.
type TranscriptOutput struct {
	Text    string `json:"text"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped,omitempty"`
}

func (s *Server) handleLogs(ctx context.Context, req *mcpsdk.CallToolRequest, input LogsInput) (*mcpsdk.CallToolResult, LogsOutput, error) {
	dir := input.Dir
	if dir == "" {
		dir = s.cfg.LogDir
	}
	logs, err := logfile.List(dir)
	if err != nil {
		return nil, LogsOutput{}, fmt.Errorf("list logs: %w", err)
	}
	return nil, LogsOutput{Logs: logs}, nil
}

func (s *Server) handleOutline(ctx context.Context, req *mcpsdk.CallToolRequest, input OutlineInput) (*mcpsdk.CallToolResult, OutlineOutput, error) {
	events, skipped, err := s.readLog(input.Log)
	if err != nil {
		return nil, OutlineOutput{}, err
	}
	collapsed := outline.DefaultCollapsed(outline.Forest(events, false), s.cfg.Policy)
	rows := outline.Outline(events, false, collapsed)
	text := render.Rows(rows, collapsed, s.cfg.Render)
	return nil, OutlineOutput{Text: text, Rows: len(rows), Skipped: skipped}, nil
}

func (s *Server) handleTranscript(ctx context.Context, req *mcpsdk.CallToolRequest, input TranscriptInput) (*mcpsdk.CallToolResult, TranscriptOutput, error) {
	events, skipped, err := s.readLog(input.Log)
	if err != nil {
		return nil, TranscriptOutput{}, err
	}
	var collapsed map[string]bool
	if !input.Expand {
		collapsed = outline.DefaultCollapsed(outline.Forest(events, false), s.cfg.Policy)
	}
	rows := outline.Transcript(events, false, collapsed)
	text := render.Rows(rows, collapsed, s.cfg.Render)
	return nil, TranscriptOutput{Text: text, Rows: len(rows), Skipped: skipped}, nil
}

// readLog accepts either a bare log name resolved against the
// configured directory, or an explicit path to a log file. A bare name
// may carry the log extension; it still resolves against the log dir.
func (s *Server) readLog(log string) ([]event.Event, int, error) {
	if log == "" {
		return nil, 0, fmt.Errorf("log is required")
	}
	path := log
	if !strings.ContainsRune(log, filepath.Separator) {
		resolved, err := logfile.Resolve(s.cfg.LogDir, strings.TrimSuffix(log, logfile.Ext))
		if err != nil {
			return nil, 0, err
		}
		path = resolved
	}
	events, skipped, err := logfile.Read(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read log %s: %w", log, err)
	}
	return events, skipped, nil
}
