package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func recvLine(t *testing.T, tl *Tailer) string {
	t.Helper()
	select {
	case line, ok := <-tl.Lines():
		if !ok {
			t.Fatal("lines channel closed")
		}
		return line
	case err := <-tl.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for line")
	}
	return ""
}

func TestTailer_FromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")
	if err := os.WriteFile(path, []byte("first\r\nsecond\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.FromStart = true
	cfg.Poll = true
	tl, err := New(context.Background(), path, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tl.Stop()

	if got := recvLine(t, tl); got != "first" {
		t.Errorf("line 1 = %q, want %q", got, "first")
	}
	if got := recvLine(t, tl); got != "second" {
		t.Errorf("line 2 = %q, want %q", got, "second")
	}
}

func TestTailer_FollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Poll = true
	tl, err := New(context.Background(), path, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tl.Stop()

	// Give the tailer time to seek to the end before appending.
	time.Sleep(200 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("new\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if got := recvLine(t, tl); got != "new" {
		t.Errorf("line = %q, want %q", got, "new")
	}
}

func TestTailer_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), DefaultConfig())
	if err == nil {
		t.Fatal("New() expected error for missing file")
	}
}

func TestTailer_StopClosesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Poll = true
	tl, err := New(context.Background(), path, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = tl.Stop()
	_ = tl.Stop() // idempotent

	select {
	case _, ok := <-tl.Lines():
		if ok {
			t.Error("expected lines channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("lines channel not closed after Stop")
	}
}
