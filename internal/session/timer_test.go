package session

import (
	"errors"
	"testing"
	"time"

	vperrors "vulture/pkg/errors"
)

func newTestTimer(t *testing.T) *Timer {
	t.Helper()
	timer, err := NewTimer(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewTimer() error = %v", err)
	}
	t.Cleanup(func() { timer.Close() })
	return timer
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTimer_DefaultInterval(t *testing.T) {
	timer, err := NewTimer(0)
	if err != nil {
		t.Fatal(err)
	}
	defer timer.Close()

	if timer.interval != time.Second {
		t.Errorf("interval = %v, want 1s", timer.interval)
	}
}

func TestTimer_StartTicksAndStopResets(t *testing.T) {
	timer := newTestTimer(t)

	if err := timer.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := timer.Elapsed(); got != 0 {
		t.Errorf("Elapsed() right after Start = %d, want 0", got)
	}

	waitFor(t, func() bool { return timer.Elapsed() >= 3 })

	timer.Stop()
	if got := timer.Elapsed(); got != 0 {
		t.Errorf("Elapsed() after Stop = %d, want 0", got)
	}
	if timer.Running() {
		t.Error("Running() should be false after Stop")
	}

	time.Sleep(60 * time.Millisecond)
	if got := timer.Elapsed(); got != 0 {
		t.Errorf("Elapsed() advanced after Stop: %d", got)
	}
}

func TestTimer_TicksAreMonotonic(t *testing.T) {
	timer := newTestTimer(t)

	values := make(chan int64, 16)
	timer.OnTick(func(v int64) {
		select {
		case values <- v:
		default:
		}
	})
	if err := timer.Start(); err != nil {
		t.Fatal(err)
	}

	var prev int64
	for i := 0; i < 4; i++ {
		select {
		case v := <-values:
			if v != prev+1 {
				t.Errorf("tick value = %d, want %d", v, prev+1)
			}
			prev = v
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}
}

func TestTimer_StopWhenIdle(t *testing.T) {
	timer := newTestTimer(t)

	timer.Stop()
	timer.Stop()

	if timer.Running() {
		t.Error("Running() should be false")
	}
}

func TestTimer_DoubleStart(t *testing.T) {
	timer := newTestTimer(t)

	if err := timer.Start(); err != nil {
		t.Fatal(err)
	}
	if err := timer.Start(); !errors.Is(err, vperrors.ErrTimerRunning) {
		t.Errorf("second Start() error = %v, want ErrTimerRunning", err)
	}

	timer.Stop()
	if err := timer.Start(); err != nil {
		t.Errorf("Start() after Stop error = %v", err)
	}
}

func TestTimer_Resume(t *testing.T) {
	timer := newTestTimer(t)

	if err := timer.Resume(120); err != nil {
		t.Fatal(err)
	}
	if got := timer.Elapsed(); got != 120 {
		t.Errorf("Elapsed() = %d, want 120", got)
	}
	waitFor(t, func() bool { return timer.Elapsed() > 120 })
}
