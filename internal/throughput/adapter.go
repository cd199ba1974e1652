package throughput

import (
	"sync"

	"vulture/internal/core/types"
	vperrors "vulture/pkg/errors"
)

// Plugin produces throughput samples at its own pace.
type Plugin interface {
	StartSampling(callback func(types.Sample)) error
	StopSampling() error
}

// Adapter mirrors the latest plugin sample into observable state.
type Adapter struct {
	plugin Plugin

	mu       sync.Mutex
	active   bool
	gen      uint64
	latest   *types.Sample
	onSample func(types.Sample)
}

// NewAdapter wraps plugin.
func NewAdapter(plugin Plugin) *Adapter {
	return &Adapter{plugin: plugin}
}

// Start registers onSample and starts the plugin.
func (a *Adapter) Start(onSample func(types.Sample)) error {
	a.mu.Lock()
	if a.active {
		a.mu.Unlock()
		return vperrors.ErrSamplerRunning
	}
	a.active = true
	a.gen++
	gen := a.gen
	a.latest = nil
	a.onSample = onSample
	a.mu.Unlock()

	if err := a.plugin.StartSampling(func(s types.Sample) { a.deliver(gen, s) }); err != nil {
		a.mu.Lock()
		a.active = false
		a.onSample = nil
		a.mu.Unlock()
		return err
	}
	return nil
}

// Stop deregisters the callback and stops the plugin. Safe to call when idle.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return nil
	}
	a.active = false
	a.gen++
	a.latest = nil
	a.onSample = nil
	a.mu.Unlock()

	return a.plugin.StopSampling()
}

// Active reports whether sampling is running.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Latest returns the most recent sample, or nil if none arrived yet.
func (a *Adapter) Latest() *types.Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest == nil {
		return nil
	}
	s := *a.latest
	return &s
}

func (a *Adapter) deliver(gen uint64, s types.Sample) {
	a.mu.Lock()
	if !a.active || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.latest = &s
	fn := a.onSample
	a.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
