package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nalgeon/be"
)

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	done := make(chan struct{}, 1)
	for range 5 {
		d.Trigger(func() {
			calls.Add(1)
			done <- struct{}{}
		})
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(50 * time.Millisecond)
	be.Equal(t, calls.Load(), int32(1))
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(40 * time.Millisecond)
	be.Equal(t, calls.Load(), int32(0))
}

func TestDebouncerSerializesCalls(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	defer d.Stop()

	var running, overlaps, calls atomic.Int32
	done := make(chan struct{}, 2)
	slow := func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(60 * time.Millisecond)
		running.Add(-1)
		calls.Add(1)
		done <- struct{}{}
	}

	d.Trigger(slow)
	time.Sleep(20 * time.Millisecond)
	// The first call is still running when the second one fires.
	d.Trigger(slow)

	for range 2 {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("debounced call never ran")
		}
	}
	be.Equal(t, calls.Load(), int32(2))
	be.Equal(t, overlaps.Load(), int32(0))
}

func TestNewRequiresFiles(t *testing.T) {
	_, err := New(nil, 0, nil)
	be.Err(t, err, "no files to watch")
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.rc")
	be.Err(t, os.WriteFile(src, []byte("int main() return 0;"), 0o644), nil)

	w, err := New([]string{src}, 0, nil)
	be.Err(t, err, nil)
	defer w.Close()

	be.True(t, w.Relevant(fsnotify.Event{Name: src, Op: fsnotify.Write}))
	be.True(t, w.Relevant(fsnotify.Event{Name: src, Op: fsnotify.Create}))
	be.True(t, !w.Relevant(fsnotify.Event{Name: src, Op: fsnotify.Chmod}))
	be.True(t, !w.Relevant(fsnotify.Event{Name: filepath.Join(dir, "other.rc"), Op: fsnotify.Write}))
}

func TestRunRebuildsOnWrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.rc")
	be.Err(t, os.WriteFile(src, []byte("int main() return 0;"), 0o644), nil)

	w, err := New([]string{src}, 10*time.Millisecond, nil)
	be.Err(t, err, nil)
	defer w.Close()

	ctx, cancel := context.WithCancel(t.Context())
	rebuilt := make(chan struct{}, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- w.Run(ctx, func() error {
			select {
			case rebuilt <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Writes before Run starts reading events are still queued by fsnotify.
	be.Err(t, os.WriteFile(src, []byte("int main() return 1;"), 0o644), nil)
	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after write")
	}

	cancel()
	be.Err(t, <-errc, nil)
}
