package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/joelklabo/molt/internal/core"
)

func newTempStore(t *testing.T) (*Store, func()) {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st, func() { _ = st.Close() }
}

func TestAppendAndRecentNewestFirst(t *testing.T) {
	st, cleanup := newTempStore(t)
	defer cleanup()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := st.AppendGeneration(core.GenerationRecord{At: base, Author: "alice", Result: core.GenerationResult{Success: true, Text: "hi"}}); err != nil {
		t.Fatalf("append generation: %v", err)
	}
	st.now = func() time.Time { return base.Add(time.Minute) }
	if err := st.AppendPost(core.PostingRecord{Platform: "mock", Permalink: "mock://post/1"}); err != nil {
		t.Fatalf("append post: %v", err)
	}

	entries, err := st.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Post == nil || entries[0].Post.Platform != "mock" {
		t.Fatalf("newest entry should be the post: %+v", entries[0])
	}
	if entries[1].Generation == nil || entries[1].Generation.Author != "alice" {
		t.Fatalf("unexpected generation entry %+v", entries[1])
	}
}

func TestRecentLimit(t *testing.T) {
	st, cleanup := newTempStore(t)
	defer cleanup()
	for i := 0; i < 4; i++ {
		_ = st.AppendGeneration(core.GenerationRecord{At: time.Unix(int64(i), 0)})
	}
	entries, err := st.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 || entries[0].At.Unix() != 3 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if none, _ := st.Recent(0); len(none) != 0 {
		t.Fatalf("expected no entries for n=0")
	}
}

func TestAppendTrimsOldest(t *testing.T) {
	st, cleanup := newTempStore(t)
	defer cleanup()
	old := maxEntries
	maxEntries = 2
	defer func() { maxEntries = old }()

	for i := 0; i < 3; i++ {
		if err := st.AppendGeneration(core.GenerationRecord{At: time.Unix(int64(i+1), 0)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, _ := st.Recent(10)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after trim, got %d", len(entries))
	}
	if entries[1].At.Unix() != 2 {
		t.Fatalf("oldest entry should have been dropped: %+v", entries)
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
