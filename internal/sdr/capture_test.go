package sdr

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/airwave-labs/modeswatch/internal/modes"
)

// shellHandler runs an arbitrary shell script in place of a real
// capture binary, so tests can control exactly what bytes arrive on
// stdout/stderr without depending on rtl_sdr being installed.
type shellHandler struct {
	script string
}

func (h shellHandler) Cmd(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", h.script)
}

func (h shellHandler) Device() string {
	return "TEST"
}

// recordingQueue collects enqueued samples behind a mutex, since
// readSamples runs on its own goroutine.
type recordingQueue struct {
	mu      sync.Mutex
	samples []modes.IQSample
}

func (q *recordingQueue) Enqueue(sample modes.IQSample) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = append(q.samples, sample)
}

func (q *recordingQueue) snapshot() []modes.IQSample {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]modes.IQSample(nil), q.samples...)
}

func TestCaptureDecodesInterleavedIQBytes(t *testing.T) {
	// printf emits three I/Q pairs: (1,2) (3,4) (5,6)
	h := shellHandler{script: `printf '\1\2\3\4\5\6'`}
	c := NewCapture(h)

	queue := &recordingQueue{}
	stopped, err := c.Start(context.Background(), queue)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("capture stopped with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for capture to stop")
	}

	want := []modes.IQSample{{I: 1, Q: 2}, {I: 3, Q: 4}, {I: 5, Q: 6}}
	got := queue.snapshot()
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCaptureDiscardsTrailingOddByte(t *testing.T) {
	h := shellHandler{script: `printf '\1\2\3'`}
	c := NewCapture(h)

	queue := &recordingQueue{}
	stopped, err := c.Start(context.Background(), queue)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-stopped

	got := queue.snapshot()
	want := []modes.IQSample{{I: 1, Q: 2}}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCaptureRejectsSecondStart(t *testing.T) {
	h := shellHandler{script: `sleep 5`}
	c := NewCapture(h)

	queue := &recordingQueue{}
	if _, err := c.Start(context.Background(), queue); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if _, err := c.Start(context.Background(), queue); err == nil {
		t.Error("second Start() error = nil, want non-nil")
	}
}

func TestCaptureStopTerminatesSubprocess(t *testing.T) {
	h := shellHandler{script: `sleep 5`}
	c := NewCapture(h)

	queue := &recordingQueue{}
	if _, err := c.Start(context.Background(), queue); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !c.IsRunning() {
		t.Fatal("IsRunning() = false immediately after Start")
	}

	c.Stop()

	if c.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestCaptureSurfacesNonZeroExit(t *testing.T) {
	h := shellHandler{script: `exit 1`}
	c := NewCapture(h)

	queue := &recordingQueue{}
	stopped, err := c.Start(context.Background(), queue)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-stopped:
		if err == nil {
			t.Error("capture stopped with nil error, want non-nil for a failing command")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for capture to stop")
	}
}
