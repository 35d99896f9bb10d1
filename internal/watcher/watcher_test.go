package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) Handle(_ context.Context, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) waitFor(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, p := range r.snapshot() {
			if p == path {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s not handled; got %v", path, r.snapshot())
}

func count(paths []string, path string) int {
	n := 0
	for _, p := range paths {
		if p == path {
			n++
		}
	}
	return n
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, true) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(dir, "a.pdf")
	nested := filepath.Join(sub, "b.docx")
	skipped := filepath.Join(dir, "notes.log")
	for _, p := range []string{top, nested, skipped} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	w := New([]string{dir}, []string{"pdf", ".DOCX"}, true, rec, WithDebounce(20*time.Millisecond))
	startWatcher(t, w)

	rec.waitFor(t, top)
	rec.waitFor(t, nested)
	if n := count(rec.snapshot(), skipped); n != 0 {
		t.Errorf("filtered extension handled %d times", n)
	}
}

func TestWatcher_NonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(dir, "a.pdf")
	nested := filepath.Join(sub, "b.pdf")
	for _, p := range []string{top, nested} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	w := New([]string{dir}, nil, false, rec, WithDebounce(20*time.Millisecond))
	startWatcher(t, w)

	rec.waitFor(t, top)
	if n := count(rec.snapshot(), nested); n != 0 {
		t.Errorf("nested file handled %d times in non-recursive mode", n)
	}
}

func TestWatcher_DebounceNewFiles(t *testing.T) {
	dir := t.TempDir()
	ready := filepath.Join(dir, "ready.txt")
	if err := os.WriteFile(ready, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := New([]string{dir}, []string{"txt"}, true, rec, WithDebounce(150*time.Millisecond))
	startWatcher(t, w)
	// existing files are walked after the roots are watched
	rec.waitFor(t, ready)

	f := filepath.Join(dir, "contract.txt")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(f, []byte("rev"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec.waitFor(t, f)
	time.Sleep(300 * time.Millisecond)
	if n := count(rec.snapshot(), f); n != 1 {
		t.Errorf("handled %d times, want 1", n)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	ready := filepath.Join(dir, "ready.txt")
	if err := os.WriteFile(ready, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := New([]string{dir}, []string{"txt"}, true, rec, WithDebounce(20*time.Millisecond))
	startWatcher(t, w)
	rec.waitFor(t, ready)

	sub := filepath.Join(dir, "batch")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(sub, "nda.txt")
	if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.waitFor(t, f)
}

func TestWatcher_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inbox", "new")
	w := New([]string{root}, nil, true, &recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx, false); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestWatcher_RescheduleWhileFiring(t *testing.T) {
	rec := &recorder{}
	w := New(nil, nil, false, rec, WithDebounce(time.Microsecond))
	ctx := context.Background()
	path := "/inbox/nda.pdf"

	for i := 0; i < 100000; i++ {
		w.schedule(ctx, path)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		w.mu.Lock()
		n := len(w.pending)
		w.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("%d timers still pending", n)
		}
		time.Sleep(time.Millisecond)
	}
	w.shutdown()

	if count(rec.snapshot(), path) == 0 {
		t.Error("path never handled")
	}
}

func TestWatcher_RescheduleKeepsLatestTimer(t *testing.T) {
	w := New(nil, nil, false, &recorder{}, WithDebounce(time.Hour))
	ctx := context.Background()

	w.schedule(ctx, "a.pdf")
	w.mu.Lock()
	first := w.pending["a.pdf"]
	w.mu.Unlock()
	w.schedule(ctx, "a.pdf")
	w.mu.Lock()
	second := w.pending["a.pdf"]
	w.mu.Unlock()
	if second == nil || second == first {
		t.Fatal("rescheduling did not replace the pending timer")
	}

	w.cancel("a.pdf")
	done := make(chan struct{})
	go func() {
		w.shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown blocked on stopped timers")
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"a.pdf", nil, true},
		{"a.pdf", []string{"pdf"}, true},
		{"a.PDF", []string{".pdf"}, true},
		{"a.pdf", []string{"docx"}, false},
		{"noext", []string{"pdf"}, false},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.exts); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/data", "/data/a.pdf", true},
		{"/data", "/data/x/y.pdf", true},
		{"/data", "/data", true},
		{"/data", "/other/a.pdf", false},
		{"/data", "/database/a.pdf", false},
		{"/data/x", "/data/a.pdf", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
