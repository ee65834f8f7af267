// Package logfile reads evaluation transcript logs: JSONL files with
// one event per line, written append-only by the evaluation runtime.
package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/runlens/internal/event"
)

// Ext is the transcript log filename extension.
const Ext = ".eval.jsonl"

// maxLineBytes bounds a single event line. Model IO payloads can be
// large; 16 MiB matches the runtime's own truncation ceiling.
const maxLineBytes = 16 << 20

// Read parses a transcript log. Blank and malformed lines are skipped,
// not fatal — a live log's last line is routinely half-written — and
// the number of skipped lines is returned alongside the events.
func Read(path string) ([]event.Event, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open transcript log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []event.Event
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		ev, err := event.DecodeLine(line)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, skipped, fmt.Errorf("read transcript log: %w", err)
	}
	return events, skipped, nil
}

// List returns the transcript logs under dir, sorted by name. Names are
// returned without the extension; Resolve maps one back to its path.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list transcript logs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}

// ErrInvalidName marks log names that would escape the log directory.
var ErrInvalidName = errors.New("invalid log name")

// ErrNotFound marks log names with no file under the log directory.
var ErrNotFound = errors.New("log not found")

// Resolve maps a log name back to its path under dir, rejecting names
// that escape the directory.
func Resolve(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(dir, name+Ext)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return path, nil
}
