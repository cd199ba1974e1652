package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"vulture/internal/catalog"
	"vulture/internal/core/types"
	"vulture/internal/storage/models"
	vperrors "vulture/pkg/errors"
)

// SettingSelectedServer is the settings key holding the selected config id.
const SettingSelectedServer = "selected_server"

// Alert titles shown to the user.
const (
	TitleSelect           = "Select a Country"
	TitleConnectFailed    = "Connection Failed"
	TitleDisconnectFailed = "Disconnection Failed"

	msgNoSelection = "Please choose a country in the Countries tab first."
)

// Identity is the fixed metadata passed to the tunnel on every connect.
type Identity struct {
	DisplayName string
	BundleID    string
	CompatMode  types.CompatMode
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Catalog     *catalog.Catalog
	Provisioner Provisioner
	Tunnel      Tunnel
	Clock       Clock
	Sampler     Sampler
	Notifier    Notifier
	Store       Store
	Identity    Identity
	Log         logrus.FieldLogger

	// AutoSelectFirst selects the first catalog entry when nothing has been
	// chosen yet.
	AutoSelectFirst bool
}

// Snapshot is a consistent view of controller state.
type Snapshot struct {
	State       types.ConnectionState
	Selected    *catalog.ServerEntry
	Elapsed     int64
	Sample      *types.Sample // nil until the first sample of a session
	Pending     types.Operation
	ConnectedAt time.Time

	// Seq increases with every change; a snapshot with a lower Seq is
	// older than one already seen.
	Seq uint64
}

// Controller owns the connection state and drives provisioning, the tunnel,
// the session clock and the sampler. State-changing calls are serialized:
// each one waits for the previous to finish.
type Controller struct {
	deps Deps
	log  logrus.FieldLogger
	ops  *semaphore.Weighted

	mu          sync.RWMutex
	seq         uint64
	state       types.ConnectionState
	selected    string
	current     catalog.ServerEntry // server of the running tunnel
	elapsed     int64
	sample      *types.Sample
	pending     types.Operation
	connectedAt time.Time

	obsMu     sync.Mutex
	observers []func(Snapshot)
}

// NewController wires a controller. Catalog, Provisioner, Tunnel, Clock,
// Sampler and Store are required.
func NewController(deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Notifier == nil {
		deps.Notifier = NotifierFunc(func(string, string) {})
	}

	c := &Controller{
		deps: deps,
		log:  deps.Log.WithField("component", "controller"),
		ops:  semaphore.NewWeighted(1),
	}
	deps.Clock.OnTick(c.onTick)
	return c
}

// Subscribe registers fn to receive a snapshot after every change.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.obsMu.Lock()
	c.observers = append(c.observers, fn)
	c.obsMu.Unlock()
}

// Catalog returns the injected catalog.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.deps.Catalog
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		State:       c.state,
		Elapsed:     c.elapsed,
		Pending:     c.pending,
		ConnectedAt: c.connectedAt,
		Seq:         c.seq,
	}
	if e, ok := c.deps.Catalog.Lookup(c.selected); ok {
		snap.Selected = &e
	}
	if c.sample != nil {
		s := *c.sample
		snap.Sample = &s
	}
	return snap
}

// State returns the connection state.
func (c *Controller) State() types.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Toggle disconnects when connected and connects otherwise. It waits for any
// operation already in flight.
func (c *Controller) Toggle(ctx context.Context) error {
	if err := c.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.release()
	return c.toggle(ctx)
}

// TryToggle is Toggle that fails with ErrBusy instead of waiting.
func (c *Controller) TryToggle(ctx context.Context) error {
	if !c.ops.TryAcquire(1) {
		return vperrors.ErrBusy
	}
	defer c.release()
	return c.toggle(ctx)
}

func (c *Controller) toggle(ctx context.Context) error {
	if c.State() == types.Connected {
		c.setPending(types.OpDisconnect)
		return c.disconnect(ctx)
	}
	c.setPending(types.OpConnect)
	return c.connect(ctx)
}

// Connect brings the tunnel up for the selected server.
func (c *Controller) Connect(ctx context.Context) error {
	if err := c.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.release()

	if c.State() == types.Connected {
		return vperrors.ErrAlreadyConnected
	}
	c.setPending(types.OpConnect)
	return c.connect(ctx)
}

// Disconnect tears the tunnel down.
func (c *Controller) Disconnect(ctx context.Context) error {
	if err := c.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.release()

	if c.State() != types.Connected {
		return vperrors.ErrNotConnected
	}
	c.setPending(types.OpDisconnect)
	return c.disconnect(ctx)
}

// SelectServer changes the selected server. While connected, the current
// tunnel is torn down and, once that has completed, the new server is
// connected.
func (c *Controller) SelectServer(ctx context.Context, configID string) error {
	entry, ok := c.deps.Catalog.Lookup(configID)
	if !ok {
		err := &vperrors.SelectionError{ConfigID: configID, Err: vperrors.ErrUnknownServer}
		c.deps.Notifier.Alert(TitleSelect, err.Error())
		return err
	}

	if err := c.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.release()

	c.mu.RLock()
	same := c.selected == configID
	connected := c.state == types.Connected
	c.mu.RUnlock()
	if same {
		return nil
	}

	if !connected {
		c.choose(ctx, entry)
		return nil
	}

	// The running tunnel stays selected until it is really gone.
	c.setPending(types.OpReselect)
	if err := c.disconnect(ctx); err != nil {
		if c.State() != types.Connected {
			c.choose(ctx, entry)
		}
		return err
	}
	c.choose(ctx, entry)
	return c.connect(ctx)
}

// choose makes entry the selection and persists it.
func (c *Controller) choose(ctx context.Context, entry catalog.ServerEntry) {
	c.mu.Lock()
	c.selected = entry.ConfigID
	c.seq++
	c.mu.Unlock()

	if err := c.deps.Store.SetSetting(ctx, SettingSelectedServer, entry.ConfigID); err != nil {
		c.log.WithError(err).Warn("failed to persist selection")
	}
	c.log.WithField("server", entry.Name).Info("server selected")
	c.notify()
}

// Restore reloads the persisted selection and re-attaches to a tunnel left
// running by an earlier process.
func (c *Controller) Restore(ctx context.Context) error {
	if err := c.ops.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.release()

	selected, err := c.deps.Store.GetSetting(ctx, SettingSelectedServer)
	if err != nil {
		c.log.WithError(err).Debug("no persisted selection")
	}
	if _, ok := c.deps.Catalog.Lookup(selected); !ok {
		selected = ""
		if c.deps.AutoSelectFirst {
			selected = c.deps.Catalog.First().ConfigID
		}
	}
	c.mu.Lock()
	c.selected = selected
	c.seq++
	c.mu.Unlock()

	active, err := c.deps.Store.GetActiveConnection(ctx)
	if err != nil {
		return err
	}
	if active != nil {
		entry, ok := c.deps.Catalog.Lookup(active.ConfigID)
		if ok && c.deps.Tunnel.Active() {
			c.mu.Lock()
			c.selected = entry.ConfigID
			c.seq++
			c.mu.Unlock()

			elapsed := int64(time.Since(active.StartedAt).Seconds())
			if elapsed < 0 {
				elapsed = 0
			}
			c.log.WithField("server", entry.Name).Info("re-attached to running tunnel")
			c.enterConnected(ctx, entry, elapsed, active.StartedAt)
			return nil
		}
		c.log.WithField("config_id", active.ConfigID).Info("clearing stale active connection")
		if err := c.deps.Store.ClearActiveConnection(ctx); err != nil {
			return err
		}
	}

	c.notify()
	return nil
}

// Close stops the clock and the sampler. The tunnel is left as is.
func (c *Controller) Close() {
	c.deps.Clock.Stop()
	if err := c.deps.Sampler.Stop(); err != nil {
		c.log.WithError(err).Debug("failed to stop sampler")
	}
}

func (c *Controller) connect(ctx context.Context) error {
	c.mu.RLock()
	entry, ok := c.deps.Catalog.Lookup(c.selected)
	c.mu.RUnlock()

	if !ok {
		c.deps.Notifier.Alert(TitleSelect, msgNoSelection)
		return &vperrors.SelectionError{Err: vperrors.ErrNoSelection}
	}

	log := c.log.WithFields(logrus.Fields{"server": entry.Name, "config_id": entry.ConfigID})

	path, err := c.deps.Provisioner.EnsureProvisioned(ctx, entry.ConfigID)
	if err != nil {
		return c.fail(log, TitleConnectFailed, err)
	}
	text, err := c.deps.Provisioner.Read(ctx, path)
	if err != nil {
		return c.fail(log, TitleConnectFailed, err)
	}

	cfg := &types.TunnelConfig{
		ProfileText: text,
		DisplayName: c.deps.Identity.DisplayName,
		BundleID:    c.deps.Identity.BundleID,
		CompatMode:  c.deps.Identity.CompatMode,
	}
	if err := c.deps.Tunnel.Connect(ctx, cfg); err != nil {
		return c.fail(log, TitleConnectFailed, &vperrors.TunnelError{Op: "connect", Err: err})
	}

	log.Info("connected")
	c.enterConnected(ctx, entry, 0, time.Now())
	return nil
}

func (c *Controller) disconnect(ctx context.Context) error {
	if err := c.deps.Tunnel.Disconnect(ctx); err != nil {
		terr := &vperrors.TunnelError{Op: "disconnect", Err: err}
		c.fail(c.log, TitleDisconnectFailed, terr)

		// Trust the tunnel over our own bookkeeping.
		if !c.deps.Tunnel.Active() {
			c.log.Warn("tunnel is down despite failed disconnect")
			c.enterDisconnected(ctx)
		}
		return terr
	}

	c.log.Info("disconnected")
	c.enterDisconnected(ctx)
	return nil
}

func (c *Controller) fail(log logrus.FieldLogger, title string, err error) error {
	log.WithError(err).Error(title)
	c.deps.Notifier.Alert(title, err.Error())
	return err
}

func (c *Controller) enterConnected(ctx context.Context, entry catalog.ServerEntry, elapsed int64, since time.Time) {
	c.mu.Lock()
	c.seq++
	c.state = types.Connected
	c.current = entry
	c.elapsed = elapsed
	c.sample = nil
	c.connectedAt = since
	c.mu.Unlock()

	startClock := c.deps.Clock.Start
	if elapsed > 0 {
		startClock = func() error { return c.deps.Clock.Resume(elapsed) }
	}
	if err := startClock(); err != nil {
		c.log.WithError(err).Warn("failed to start session clock")
	}
	if err := c.deps.Sampler.Start(c.onSample); err != nil {
		c.log.WithError(err).Warn("failed to start throughput sampler")
	}

	err := c.deps.Store.SetActiveConnection(ctx, &models.ActiveConnection{
		ConfigID:   entry.ConfigID,
		ServerName: entry.Name,
		StartedAt:  since,
	})
	if err != nil {
		c.log.WithError(err).Warn("failed to record active connection")
	}
	c.notify()
}

func (c *Controller) enterDisconnected(ctx context.Context) {
	c.mu.Lock()
	entry := c.current
	session := &models.Session{
		ID:          uuid.NewString(),
		ConfigID:    entry.ConfigID,
		ServerName:  entry.Name,
		StartedAt:   c.connectedAt,
		EndedAt:     time.Now(),
		DurationSec: c.elapsed,
	}
	if c.sample != nil {
		session.UploadKbps = c.sample.UploadKbps
		session.DownloadKbps = c.sample.DownloadKbps
	}
	c.seq++
	c.state = types.Disconnected
	c.current = catalog.ServerEntry{}
	c.elapsed = 0
	c.sample = nil
	c.connectedAt = time.Time{}
	c.mu.Unlock()

	c.deps.Clock.Stop()
	if err := c.deps.Sampler.Stop(); err != nil {
		c.log.WithError(err).Warn("failed to stop throughput sampler")
	}

	if err := c.deps.Store.ClearActiveConnection(ctx); err != nil {
		c.log.WithError(err).Warn("failed to clear active connection")
	}
	if err := c.deps.Store.RecordSession(ctx, session); err != nil {
		c.log.WithError(err).Warn("failed to record session")
	}
	c.notify()
}

func (c *Controller) onTick(elapsed int64) {
	c.mu.Lock()
	if c.state != types.Connected {
		c.mu.Unlock()
		return
	}
	c.elapsed = elapsed
	c.seq++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onSample(s types.Sample) {
	c.mu.Lock()
	if c.state != types.Connected {
		c.mu.Unlock()
		return
	}
	c.sample = &s
	c.seq++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) setPending(op types.Operation) {
	c.mu.Lock()
	c.pending = op
	c.seq++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) release() {
	c.setPending(types.OpNone)
	c.ops.Release(1)
}

func (c *Controller) notify() {
	snap := c.Snapshot()

	c.obsMu.Lock()
	observers := make([]func(Snapshot), len(c.observers))
	copy(observers, c.observers)
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// IsSelectionError reports whether err means no usable server was chosen.
func IsSelectionError(err error) bool {
	var serr *vperrors.SelectionError
	return errors.As(err, &serr)
}
