package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_DebouncesDocumentChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := w.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// ignored: not a pdf or docx
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "manual.pdf"), []byte("v"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case c := <-changes:
		if len(c.Paths) != 1 || filepath.Base(c.Paths[0]) != "manual.pdf" {
			t.Errorf("Unexpected change %+v", c)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected a change notification")
	}

	select {
	case c := <-changes:
		t.Errorf("Expected the writes to collapse into one change, got another %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_StopsWithContext(t *testing.T) {
	w, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := w.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			t.Error("Expected the channel to close")
		}
	case <-time.After(time.Second):
		t.Fatal("Expected the channel to close after cancel")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()
	if _, err := w.Watch(context.Background()); err == nil {
		t.Error("Expected an error for a missing folder")
	}
}
