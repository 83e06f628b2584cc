package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/snare/pkg/lifecycle"
)

type flag struct{ ok atomic.Bool }

func (f *flag) Ready() bool { return f.ok.Load() }

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()

	var started atomic.Bool
	lc.OnStartup(func() { started.Store(true) })

	if lc.Ready() {
		t.Fatal("Ready() = true before WaitForStartup")
	}

	lc.WaitForStartup()
	if !started.Load() {
		t.Fatal("startup hook did not run")
	}
	if !lc.Ready() {
		t.Fatal("Ready() = false with no checks registered")
	}

	db, blobs := &flag{}, &flag{}
	lc.Check("database", db)
	lc.Check("storage", blobs)

	if lc.Ready() {
		t.Error("Ready() = true with pending checks")
	}
	if diff := cmp.Diff([]string{"database", "storage"}, lc.Pending()); diff != "" {
		t.Errorf("Pending() mismatch (-want +got):\n%s", diff)
	}

	db.ok.Store(true)
	if diff := cmp.Diff([]string{"storage"}, lc.Pending()); diff != "" {
		t.Errorf("Pending() mismatch (-want +got):\n%s", diff)
	}

	blobs.ok.Store(true)
	if !lc.Ready() {
		t.Error("Ready() = false after all checks pass")
	}
	if got := lc.Pending(); len(got) != 0 {
		t.Errorf("Pending() = %v, want empty", got)
	}
}

func TestShutdown(t *testing.T) {
	t.Run("runs hooks after cancel", func(t *testing.T) {
		lc := lifecycle.New()

		var closed atomic.Bool
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			closed.Store(true)
		})

		if err := lc.Shutdown(time.Second); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
		if !closed.Load() {
			t.Error("shutdown hook did not run")
		}
		if lc.Context().Err() == nil {
			t.Error("context not cancelled")
		}
	})

	t.Run("times out on stuck hook", func(t *testing.T) {
		lc := lifecycle.New()

		release := make(chan struct{})
		defer close(release)
		lc.OnShutdown(func() { <-release })

		if err := lc.Shutdown(10 * time.Millisecond); err == nil {
			t.Error("Shutdown() error = nil, want timeout")
		}
	})
}
