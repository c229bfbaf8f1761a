package lifecycle_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/prfaq/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()

	var warmed atomic.Int32
	for range 3 {
		lc.OnStartup(func() { warmed.Add(1) })
	}

	if lc.Ready() {
		t.Error("ready before startup completed")
	}

	lc.WaitForStartup()
	if got := warmed.Load(); got != 3 {
		t.Errorf("startup hooks run: got %d, want 3", got)
	}
	if !lc.Ready() {
		t.Error("not ready after startup")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if lc.Ready() {
		t.Error("ready after shutdown")
	}
	if lc.Context().Err() == nil {
		t.Error("context not cancelled by shutdown")
	}
}

func TestShutdownHooks(t *testing.T) {
	tests := []struct {
		name    string
		work    time.Duration
		timeout time.Duration
		wantErr bool
	}{
		{"completes", 0, 5 * time.Second, false},
		{"exceeds timeout", 500 * time.Millisecond, 50 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := lifecycle.New()

			var closed atomic.Bool
			lc.OnShutdown(func() {
				<-lc.Context().Done()
				time.Sleep(tt.work)
				closed.Store(true)
			})
			lc.WaitForStartup()

			err := lc.Shutdown(tt.timeout)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Shutdown() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !closed.Load() {
				t.Error("shutdown hook did not finish")
			}
		})
	}
}

func TestShutdownWaitsForTrackedWork(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	done, err := lc.Track()
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	var finished atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		done()
		done()
	}()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !finished.Load() {
		t.Error("shutdown returned before tracked work finished")
	}
}

func TestTrackAfterShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if _, err := lc.Track(); !errors.Is(err, lifecycle.ErrShuttingDown) {
		t.Errorf("Track() error = %v, want ErrShuttingDown", err)
	}
	if lc.Ready() {
		t.Error("should not be ready while draining")
	}
}

func TestShutdownTimesOutOnStuckWork(t *testing.T) {
	lc := lifecycle.New()

	done, err := lc.Track()
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	defer done()

	if err := lc.Shutdown(50 * time.Millisecond); err == nil {
		t.Error("expected timeout error, got nil")
	}
}
