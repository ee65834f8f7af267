package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/runlens/internal/logfile"
	"github.com/ppiankov/runlens/internal/outline"
)

const sampleLog = `{"event":"sample_init","timestamp":"2026-01-01T00:00:00Z"}
{"event":"step","action":"begin","name":"plan","timestamp":"2026-01-01T00:00:01Z"}
{"event":"model","timestamp":"2026-01-01T00:00:02Z","model":"gpt-4"}
{"event":"tool","timestamp":"2026-01-01T00:00:03Z","function":"bash","id":"t1"}
{"event":"model","timestamp":"2026-01-01T00:00:04Z","model":"gpt-4"}
{"event":"step","action":"end","name":"plan","timestamp":"2026-01-01T00:00:05Z"}
{"event":"score","timestamp":"2026-01-01T00:00:06Z"}
`

// testServer builds a Server over a temp log dir holding one eval log.
func testServer(t *testing.T) *Server {
	t.Helper()

	logDir := t.TempDir()
	path := filepath.Join(logDir, "run1"+logfile.Ext)
	if err := os.WriteFile(path, []byte(sampleLog), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	srv, err := New(Config{
		Addr:     "127.0.0.1:0",
		LogDir:   logDir,
		View:     "outline",
		Policy:   outline.DefaultPolicy(),
		StateDir: filepath.Join(t.TempDir(), "state"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, url, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("%s %s: bad JSON response: %v\n%s", method, url, err, rec.Body.String())
	}
	return rec, parsed
}

func TestHandleLogs(t *testing.T) {
	srv := testServer(t)
	rec, body := doJSON(t, srv, http.MethodGet, "/api/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	logs, ok := body["logs"].([]any)
	if !ok || len(logs) != 1 || logs[0] != "run1" {
		t.Errorf("logs = %v", body["logs"])
	}
}

func TestHandleTranscriptOutline(t *testing.T) {
	srv := testServer(t)
	rec, body := doJSON(t, srv, http.MethodGet, "/api/logs/run1/transcript?view=outline", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	rows, ok := body["rows"].([]any)
	if !ok || len(rows) == 0 {
		t.Fatalf("no rows: %v", body)
	}
	// The outline groups model+tool runs into turns, then folds the
	// consecutive turns into a counted summary.
	var sawTurns bool
	for _, r := range rows {
		row := r.(map[string]any)
		if row["label"] == "2 turns" {
			sawTurns = true
		}
	}
	if !sawTurns {
		t.Errorf("outline has no turn summary row: %v", rows)
	}
}

func TestHandleTranscriptFullView(t *testing.T) {
	srv := testServer(t)
	rec, body := doJSON(t, srv, http.MethodGet, "/api/logs/run1/transcript?view=full", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	rows := body["rows"].([]any)
	// The full view keeps raw model rows instead of grouping them.
	var models int
	for _, r := range rows {
		if r.(map[string]any)["kind"] == "model" {
			models++
		}
	}
	if models != 2 {
		t.Errorf("full view has %d model rows, want 2", models)
	}
}

func TestHandleTranscriptRejects(t *testing.T) {
	srv := testServer(t)
	tests := []struct {
		url  string
		code int
	}{
		{"/api/logs/run1/transcript?view=sideways", http.StatusBadRequest},
		{"/api/logs/run..1/transcript", http.StatusBadRequest},
		{"/api/logs/absent/transcript", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec, _ := doJSON(t, srv, http.MethodGet, tt.url, "")
		if rec.Code != tt.code {
			t.Errorf("GET %s: status = %d, want %d", tt.url, rec.Code, tt.code)
		}
	}
}

func TestHandleCollapseChangesTranscript(t *testing.T) {
	srv := testServer(t)

	_, before := doJSON(t, srv, http.MethodGet, "/api/logs/run1/transcript?view=full", "")
	beforeRows := before["rows"].([]any)

	// Collapse the first row that has children.
	var target string
	for _, r := range beforeRows {
		row := r.(map[string]any)
		if row["has_children"] == true && row["collapsed"] != true {
			target = row["id"].(string)
			break
		}
	}
	if target == "" {
		t.Skip("no expandable row in fixture")
	}

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/logs/run1/collapse",
		`{"id":"`+target+`","collapsed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("collapse status = %d", rec.Code)
	}

	_, after := doJSON(t, srv, http.MethodGet, "/api/logs/run1/transcript?view=full", "")
	afterRows := after["rows"].([]any)
	if len(afterRows) >= len(beforeRows) {
		t.Errorf("collapse did not shrink the view: %d -> %d rows", len(beforeRows), len(afterRows))
	}
}

func TestHandleCollapseRejectsMissingID(t *testing.T) {
	srv := testServer(t)
	rec, _ := doJSON(t, srv, http.MethodPost, "/api/logs/run1/collapse", `{"collapsed":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
