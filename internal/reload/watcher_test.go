package reload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cryguy/livefx/internal/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fx.js")
	writeFile(t, path, "// v1")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, path
}

func waitDirty(t *testing.T, w *Watcher) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !w.Dirty() {
		if time.Now().After(deadline) {
			t.Fatal("watcher never became dirty")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.js"))
	var we *core.WatcherSetupError
	if !errors.As(err, &we) {
		t.Fatalf("err = %v, want WatcherSetupError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want to wrap ErrNotExist", err)
	}
}

func TestNew_Directory(t *testing.T) {
	var we *core.WatcherSetupError
	if _, err := New(t.TempDir()); !errors.As(err, &we) {
		t.Fatalf("err = %v, want WatcherSetupError", err)
	}
}

func TestWatcher_StartsClean(t *testing.T) {
	w, _ := newTestWatcher(t)
	if w.Dirty() {
		t.Error("new watcher is dirty")
	}
	if w.TakeDirty() {
		t.Error("TakeDirty on clean watcher returned true")
	}
}

func TestWatcher_WriteMarksDirty(t *testing.T) {
	w, path := newTestWatcher(t)
	writeFile(t, path, "// v2")
	waitDirty(t, w)

	if !w.TakeDirty() {
		t.Fatal("TakeDirty returned false while dirty")
	}
	if w.TakeDirty() {
		t.Error("second TakeDirty returned true")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	w, path := newTestWatcher(t)
	writeFile(t, filepath.Join(filepath.Dir(path), "other.js"), "x")
	time.Sleep(200 * time.Millisecond)
	if w.Dirty() {
		t.Error("sibling write marked watcher dirty")
	}
}

func TestWatcher_RenameOverOriginal(t *testing.T) {
	w, path := newTestWatcher(t)
	tmp := path + ".swp"
	writeFile(t, tmp, "// v2")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitDirty(t, w)
	w.TakeDirty()
	if err := w.Rearm(); err != nil {
		t.Fatalf("Rearm: %v", err)
	}

	writeFile(t, path, "// v3")
	waitDirty(t, w)
}

func TestWatcher_MarkDirtyAndClose(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.MarkDirty()
	if !w.TakeDirty() {
		t.Error("MarkDirty did not set the flag")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
