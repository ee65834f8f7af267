package viewstate

import (
	"testing"

	"github.com/ppiankov/runlens/internal/event"
	"github.com/ppiankov/runlens/internal/tree"
)

func TestStoreSetAndCollapsed(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	collapsed, err := store.Collapsed("run1")
	if err != nil {
		t.Fatalf("Collapsed: %v", err)
	}
	if collapsed != nil {
		t.Fatalf("expected nil state for fresh log, got %v", collapsed)
	}

	if err := store.Set("run1", "0.1", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	collapsed, err = store.Collapsed("run1")
	if err != nil {
		t.Fatalf("Collapsed: %v", err)
	}
	if !collapsed["0.1"] {
		t.Fatalf("expected 0.1 collapsed, got %v", collapsed)
	}

	if err := store.Set("run1", "0.1", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	collapsed, err = store.Collapsed("run1")
	if err != nil {
		t.Fatalf("Collapsed: %v", err)
	}
	if collapsed["0.1"] {
		t.Fatalf("expected 0.1 expanded after un-set, got %v", collapsed)
	}
}

func TestStoreSeedOnlyOnce(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Seed("run1", map[string]bool{"0": true}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// A second seed must not clobber existing state.
	if err := store.Seed("run1", map[string]bool{"1": true}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	collapsed, err := store.Collapsed("run1")
	if err != nil {
		t.Fatalf("Collapsed: %v", err)
	}
	if !collapsed["0"] || collapsed["1"] {
		t.Fatalf("second seed overwrote state: %v", collapsed)
	}
}

func TestStoreRevisionBumpsOnSet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	before := store.Revision("run1")
	if err := store.Set("run1", "0", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	after := store.Revision("run1")
	if after == before {
		t.Fatalf("revision did not change: %d", after)
	}
	if store.Revision("other") != 0 {
		t.Fatalf("unrelated log's revision changed")
	}
}

func TestStoreRejectsBadNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, name := range []string{"", "../escape", "a/b", "a\\b", "run one"} {
		if err := store.Set(name, "0", true); err == nil {
			t.Errorf("Set(%q) accepted invalid name", name)
		}
		if _, err := store.Collapsed(name); err == nil {
			t.Errorf("Collapsed(%q) accepted invalid name", name)
		}
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := NewCache(4)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	key := CacheKey{Log: "run1", Events: 10, Revision: 0, View: "outline"}
	if _, ok := cache.Get(key); ok {
		t.Fatalf("unexpected hit on empty cache")
	}

	rows := []*tree.Node{{ID: "0", Event: event.Event{Kind: event.KindModel}}}
	cache.Put(key, rows)

	got, ok := cache.Get(key)
	if !ok {
		t.Fatalf("expected hit")
	}
	if len(got) != 1 || got[0].ID != "0" {
		t.Fatalf("wrong rows: %v", got)
	}

	// A different revision is a different key.
	if _, ok := cache.Get(CacheKey{Log: "run1", Events: 10, Revision: 1, View: "outline"}); ok {
		t.Fatalf("stale revision hit the cache")
	}
}
