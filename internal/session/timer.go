package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	vperrors "vulture/pkg/errors"
)

// DefaultInterval is the tick period of the session clock.
const DefaultInterval = time.Second

// Timer counts whole connected seconds.
type Timer struct {
	scheduler gocron.Scheduler
	interval  time.Duration

	mu      sync.Mutex
	jobID   uuid.UUID
	running bool
	gen     uint64
	elapsed int64
	onTick  func(int64)
}

// NewTimer creates a stopped timer. A zero interval means DefaultInterval.
func NewTimer(interval time.Duration) (*Timer, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	scheduler.Start()

	return &Timer{scheduler: scheduler, interval: interval}, nil
}

// OnTick registers fn to receive the clock value after every tick.
func (t *Timer) OnTick(fn func(int64)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// Start resets the clock to zero and begins ticking.
func (t *Timer) Start() error {
	return t.Resume(0)
}

// Resume begins ticking from elapsed seconds.
func (t *Timer) Resume(elapsed int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return vperrors.ErrTimerRunning
	}

	t.gen++
	gen := t.gen
	job, err := t.scheduler.NewJob(
		gocron.DurationJob(t.interval),
		gocron.NewTask(func() { t.tick(gen) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create tick job: %w", err)
	}

	t.jobID = job.ID()
	t.elapsed = elapsed
	t.running = true
	return nil
}

// Stop halts ticking and resets the clock. Safe to call when idle.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.elapsed = 0
	if !t.running {
		return
	}
	t.running = false
	t.gen++
	t.scheduler.RemoveJob(t.jobID)
}

// Elapsed returns the current clock value in seconds.
func (t *Timer) Elapsed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Running reports whether the timer is ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Close stops the timer and its scheduler.
func (t *Timer) Close() error {
	t.Stop()
	return t.scheduler.Shutdown()
}

func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	// A tick scheduled before Stop must not advance the next session.
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.elapsed++
	v, fn := t.elapsed, t.onTick
	t.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}
