package logfile

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/runlens/internal/event"
)

// debounceDefault coalesces the write bursts a streaming run produces;
// one re-read per burst instead of one per line.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the fallback re-read interval when fsnotify cannot
// watch the log's directory (e.g. NFS).
const pollDefault = 2 * time.Second

// Tail follows a growing transcript log and hands the handler the full
// event list after each write burst. Each invocation is a complete
// re-read: the pipeline recomputes from the raw list, so there is no
// incremental state to keep consistent.
type Tail struct {
	path     string
	handler  func([]event.Event)
	debounce time.Duration
	poll     time.Duration
}

// NewTail creates a follower for the given log path.
func NewTail(path string, handler func([]event.Event)) *Tail {
	return &Tail{
		path:     path,
		handler:  handler,
		debounce: debounceDefault,
		poll:     pollDefault,
	}
}

// Run delivers the current contents immediately, then follows the file
// until ctx is cancelled. The log's directory is watched rather than
// the file itself so atomic rewrites keep being tracked.
func (t *Tail) Run(ctx context.Context) error {
	t.deliver()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return t.runPolling(ctx)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return t.runPolling(ctx)
	}

	// Single debounce timer, reset on each event. Initialized as
	// stopped; the first write starts it.
	debounceTimer := time.NewTimer(t.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounceTimer.C:
			t.deliver()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != t.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(t.debounce)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// runPolling re-reads on a fixed interval, delivering only when the
// file size changed.
func (t *Tail) runPolling(ctx context.Context) error {
	var lastSize int64 = -1
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(t.path)
			if err != nil {
				continue
			}
			if info.Size() != lastSize {
				lastSize = info.Size()
				t.deliver()
			}
		}
	}
}

func (t *Tail) deliver() {
	events, _, err := Read(t.path)
	if err != nil {
		return
	}
	t.handler(events)
}
