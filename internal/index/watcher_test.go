package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type eventLog struct {
	mu     sync.Mutex
	events []FileEvent
}

func (l *eventLog) record(ev FileEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) has(kind, path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Kind == kind && e.Path == path {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, roots ...string) *eventLog {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	log := &eventLog{}
	go Watch(ctx, roots, quietLogger(), log.record)
	time.Sleep(100 * time.Millisecond)
	return log
}

func TestWatcher_NewSourceReported(t *testing.T) {
	root := t.TempDir()
	log := startWatcher(t, root)

	_ = os.WriteFile(filepath.Join(root, "new.mdx"), []byte("# New"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has(KindCreated, "new.mdx")
	}, "expected created:new.mdx")
	if log.has(KindCreated, "ignored.txt") {
		t.Error("non-source file reported")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	log := startWatcher(t, root)

	subDir := filepath.Join(root, "guides")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(subDir, "deep.mdx"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has(KindCreated, "guides/deep.mdx")
	}, "source in new dir not reported")
}

func TestWatcher_DeleteAndSecondRoot(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	_ = os.WriteFile(filepath.Join(second, "del.mdx"), []byte("# Delete Me"), 0o644)
	log := startWatcher(t, first, second)

	_ = os.Remove(filepath.Join(second, "del.mdx"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has(KindDeleted, "del.mdx")
	}, "expected deleted:del.mdx")
}

func TestRelativeTo(t *testing.T) {
	roots := []string{"/a/docs", "/b"}
	root, rel, ok := relativeTo(roots, filepath.FromSlash("/b/x/y.mdx"))
	if !ok || root != "/b" || rel != "x/y.mdx" {
		t.Errorf("got %q %q %v", root, rel, ok)
	}
	if _, _, ok := relativeTo(roots, "/c/z.mdx"); ok {
		t.Error("path outside roots matched")
	}
}
