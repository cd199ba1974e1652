package throughput

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"vulture/internal/core/types"
	vperrors "vulture/pkg/errors"
)

// fakePlugin lets tests push samples by hand.
type fakePlugin struct {
	mu       sync.Mutex
	starts   int
	stops    int
	callback func(types.Sample)
	startErr error
}

func (p *fakePlugin) StartSampling(cb func(types.Sample)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts++
	if p.startErr != nil {
		return p.startErr
	}
	p.callback = cb
	return nil
}

func (p *fakePlugin) StopSampling() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	return nil
}

func (p *fakePlugin) emit(s types.Sample) {
	p.mu.Lock()
	cb := p.callback
	p.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func TestAdapter_StartStop(t *testing.T) {
	plugin := &fakePlugin{}
	a := NewAdapter(plugin)

	var got []types.Sample
	if err := a.Start(func(s types.Sample) { got = append(got, s) }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.Active() {
		t.Fatal("Active() = false after Start")
	}

	plugin.emit(types.Sample{UploadKbps: 10, DownloadKbps: 20})
	plugin.emit(types.Sample{UploadKbps: 30, DownloadKbps: 40})

	if len(got) != 2 {
		t.Fatalf("callback invoked %d times, want 2", len(got))
	}
	if l := a.Latest(); l == nil || l.DownloadKbps != 40 {
		t.Errorf("Latest() = %v, want download 40", l)
	}

	if err := a.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if a.Latest() != nil {
		t.Error("Latest() should be nil after Stop")
	}

	// Late samples from the plugin are dropped.
	plugin.emit(types.Sample{UploadKbps: 99})
	if len(got) != 2 {
		t.Errorf("callback invoked after Stop")
	}
	if plugin.starts != 1 || plugin.stops != 1 {
		t.Errorf("plugin starts/stops = %d/%d, want 1/1", plugin.starts, plugin.stops)
	}
}

func TestAdapter_StopWhenIdle(t *testing.T) {
	plugin := &fakePlugin{}
	a := NewAdapter(plugin)

	if err := a.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if plugin.stops != 0 {
		t.Errorf("plugin stopped %d times, want 0", plugin.stops)
	}
}

func TestAdapter_DoubleStart(t *testing.T) {
	a := NewAdapter(&fakePlugin{})
	a.Start(func(types.Sample) {})

	if err := a.Start(func(types.Sample) {}); !errors.Is(err, vperrors.ErrSamplerRunning) {
		t.Errorf("second Start() error = %v, want ErrSamplerRunning", err)
	}
}

func TestAdapter_StartFailure(t *testing.T) {
	plugin := &fakePlugin{startErr: errors.New("no device")}
	a := NewAdapter(plugin)

	if err := a.Start(func(types.Sample) {}); err == nil {
		t.Fatal("Start() should fail")
	}
	if a.Active() {
		t.Error("Active() should be false after failed Start")
	}
}

func TestKbps(t *testing.T) {
	tests := []struct {
		name      string
		cur, prev uint64
		seconds   float64
		want      float64
	}{
		{"idle", 1000, 1000, 1, 0},
		{"1000 bytes in 1s", 2000, 1000, 1, 8},
		{"125000 bytes in 2s", 250000, 125000, 2, 500},
		{"counter reset", 10, 1000, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kbps(tt.cur, tt.prev, tt.seconds); got != tt.want {
				t.Errorf("kbps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIfaceSampler_Update(t *testing.T) {
	s := &IfaceSampler{}
	t0 := time.Unix(1000, 0)

	if _, ok := s.update(1000, 5000, t0); ok {
		t.Error("first reading should only prime")
	}
	got, ok := s.update(2000, 7000, t0.Add(time.Second))
	if !ok {
		t.Fatal("second reading should produce a sample")
	}
	if got.UploadKbps != 8 || got.DownloadKbps != 16 {
		t.Errorf("update() = %+v, want {8 16}", got)
	}
}

func TestIfaceSampler_Polls(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	var n atomic.Uint64
	counters := func() (uint64, uint64, error) {
		v := n.Add(1000)
		return v, v * 2, nil
	}

	s, err := NewIfaceSampler(counters, 20*time.Millisecond, log)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	samples := make(chan types.Sample, 8)
	if err := s.StartSampling(func(x types.Sample) {
		select {
		case samples <- x:
		default:
		}
	}); err != nil {
		t.Fatalf("StartSampling() error = %v", err)
	}

	select {
	case x := <-samples:
		if x.UploadKbps <= 0 || x.DownloadKbps <= x.UploadKbps {
			t.Errorf("sample = %+v, want positive upload and larger download", x)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no sample produced")
	}

	if err := s.StopSampling(); err != nil {
		t.Errorf("StopSampling() error = %v", err)
	}
	if err := s.StopSampling(); err != nil {
		t.Errorf("StopSampling() when idle error = %v", err)
	}
}

func TestSysfsCounters(t *testing.T) {
	// Point the reader at a fake statistics directory.
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "tx_bytes"), []byte("1234\n"), 0644)
	os.WriteFile(filepath.Join(dir, "rx_bytes"), []byte("5678\n"), 0644)

	tx, err := readCounter(filepath.Join(dir, "tx_bytes"))
	if err != nil || tx != 1234 {
		t.Errorf("readCounter(tx) = %d, %v", tx, err)
	}
	rx, err := readCounter(filepath.Join(dir, "rx_bytes"))
	if err != nil || rx != 5678 {
		t.Errorf("readCounter(rx) = %d, %v", rx, err)
	}

	if _, _, err := SysfsCounters("vulture-does-not-exist")(); err == nil {
		t.Error("SysfsCounters on a missing device should fail")
	}
}
