package throughput

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vulture/internal/core/types"
	vperrors "vulture/pkg/errors"
)

// CounterFunc returns cumulative transmitted and received bytes.
type CounterFunc func() (tx, rx uint64, err error)

// SysfsCounters reads the kernel byte counters of a network device.
func SysfsCounters(device string) CounterFunc {
	base := filepath.Join("/sys/class/net", device, "statistics")
	return func() (uint64, uint64, error) {
		tx, err := readCounter(filepath.Join(base, "tx_bytes"))
		if err != nil {
			return 0, 0, err
		}
		rx, err := readCounter(filepath.Join(base, "rx_bytes"))
		if err != nil {
			return 0, 0, err
		}
		return tx, rx, nil
	}
}

func readCounter(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}

// IfaceSampler derives upload/download rates from interface counters.
type IfaceSampler struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	counters  CounterFunc
	log       logrus.FieldLogger
	now       func() time.Time

	mu       sync.Mutex
	running  bool
	jobID    uuid.UUID
	callback func(types.Sample)

	// previous reading
	primed bool
	lastTx uint64
	lastRx uint64
	lastAt time.Time
}

// NewIfaceSampler creates a sampler polling counters every interval.
func NewIfaceSampler(counters CounterFunc, interval time.Duration, log logrus.FieldLogger) (*IfaceSampler, error) {
	if interval <= 0 {
		interval = time.Second
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	scheduler.Start()

	return &IfaceSampler{
		scheduler: scheduler,
		interval:  interval,
		counters:  counters,
		log:       log,
		now:       time.Now,
	}, nil
}

func (s *IfaceSampler) StartSampling(callback func(types.Sample)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return vperrors.ErrSamplerRunning
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.poll),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create sampling job: %w", err)
	}

	s.jobID = job.ID()
	s.callback = callback
	s.primed = false
	s.running = true
	return nil
}

func (s *IfaceSampler) StopSampling() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.callback = nil
	if err := s.scheduler.RemoveJob(s.jobID); err != nil {
		return fmt.Errorf("failed to remove sampling job: %w", err)
	}
	return nil
}

// Close shuts down the scheduler.
func (s *IfaceSampler) Close() error {
	s.StopSampling()
	return s.scheduler.Shutdown()
}

func (s *IfaceSampler) poll() {
	tx, rx, err := s.counters()
	if err != nil {
		s.log.WithError(err).Debug("failed to read interface counters")
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	sample, ok := s.update(tx, rx, s.now())
	cb := s.callback
	s.mu.Unlock()

	if ok && cb != nil {
		cb(sample)
	}
}

// update folds a counter reading into the state; the first reading only
// primes it. Caller holds s.mu.
func (s *IfaceSampler) update(tx, rx uint64, at time.Time) (types.Sample, bool) {
	defer func() {
		s.lastTx, s.lastRx, s.lastAt = tx, rx, at
		s.primed = true
	}()

	if !s.primed {
		return types.Sample{}, false
	}
	elapsed := at.Sub(s.lastAt).Seconds()
	if elapsed <= 0 {
		return types.Sample{}, false
	}

	return types.Sample{
		UploadKbps:   kbps(tx, s.lastTx, elapsed),
		DownloadKbps: kbps(rx, s.lastRx, elapsed),
	}, true
}

// kbps converts a byte counter delta into kilobits per second. A counter that
// went backwards (device recreated) reads as zero.
func kbps(cur, prev uint64, seconds float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) * 8 / 1000 / seconds
}
