package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"vulture/internal/assets"
	"vulture/internal/catalog"
	"vulture/internal/config"
	"vulture/internal/core"
	"vulture/internal/core/openvpn"
	"vulture/internal/logger"
	"vulture/internal/paths"
	"vulture/internal/provision"
	"vulture/internal/session"
	"vulture/internal/storage"
	"vulture/internal/storage/sqlite"
	"vulture/internal/throughput"
)

// SettingAutoSelectFirst toggles selecting the first server when none is set.
const SettingAutoSelectFirst = "auto_select_first"

// Options are command-line overrides.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// App represents the application context
type App struct {
	Config      *config.Config
	ConfigPath  string
	Storage     storage.Storage
	Catalog     *catalog.Catalog
	Provisioner *provision.Provisioner
	Tunnel      *openvpn.Backend
	Controller  *core.Controller
	Log         *logrus.Logger

	timer     *session.Timer
	sampler   *throughput.IfaceSampler
	alerts    *alertRelay
	logCloser io.Closer
}

// New creates a new application instance
func New(opts Options) (*App, error) {
	configDir, err := paths.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	dataDir, err := paths.DataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	cacheDir, err := paths.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache directory: %w", err)
	}
	profilesDir, err := paths.ProfilesDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile directory: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(configDir, config.FileName)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logCloser, err := logger.Setup(cfg.Log.Level, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	log := logger.Logger

	a := &App{
		Config:     cfg,
		ConfigPath: configPath,
		Log:        log,
		alerts:     &alertRelay{sink: stderrAlert},
		logCloser:  logCloser,
	}
	if err := a.init(configDir, dataDir, cacheDir, profilesDir); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(configDir, dataDir, cacheDir, profilesDir string) error {
	cfg := a.Config

	catalogPath := cfg.Profiles.CatalogFile
	if catalogPath == "" {
		catalogPath = filepath.Join(configDir, "servers.yaml")
	}
	cat, err := catalog.LoadOrDefault(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to load server catalog: %w", err)
	}
	for _, w := range cat.Validate() {
		a.Log.Warn(w.String())
	}
	a.Catalog = cat

	store, err := sqlite.New(filepath.Join(dataDir, "vulture.db"))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = store

	files, err := provision.NewFSStorage(assets.Source(cfg.Profiles.SourceDir), profilesDir)
	if err != nil {
		return err
	}
	a.Provisioner = provision.New(files, a.Log.WithField("component", "provision"))

	a.Tunnel, err = openvpn.New(openvpn.Options{
		Binary:         cfg.Tunnel.Binary,
		Elevate:        cfg.Tunnel.Elevate,
		Device:         cfg.Tunnel.Device,
		RuntimeDir:     cacheDir,
		ConnectTimeout: cfg.Tunnel.ConnectTimeout,
		StopTimeout:    cfg.Tunnel.StopTimeout,
		Log:            a.Log.WithField("component", "openvpn"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tunnel: %w", err)
	}

	a.timer, err = session.NewTimer(cfg.Session.Interval)
	if err != nil {
		return err
	}
	a.sampler, err = throughput.NewIfaceSampler(
		throughput.SysfsCounters(cfg.Tunnel.Device),
		cfg.Sampler.Interval,
		a.Log.WithField("component", "sampler"),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	autoSelect := false
	if v, err := store.GetSetting(ctx, SettingAutoSelectFirst); err == nil {
		autoSelect, _ = strconv.ParseBool(v)
	}

	a.Controller = core.NewController(core.Deps{
		Catalog:     cat,
		Provisioner: a.Provisioner,
		Tunnel:      a.Tunnel,
		Clock:       a.timer,
		Sampler:     throughput.NewAdapter(a.sampler),
		Notifier:    a.alerts,
		Store:       store,
		Identity: core.Identity{
			DisplayName: cfg.Identity.DisplayName,
			BundleID:    cfg.Identity.BundleID,
			CompatMode:  cfg.CompatMode(),
		},
		Log:             a.Log,
		AutoSelectFirst: autoSelect,
	})
	if err := a.Controller.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	return nil
}

// ProvisionAll copies every catalog profile into writable storage.
func (a *App) ProvisionAll(ctx context.Context) error {
	return a.Provisioner.ProvisionAll(ctx, a.Catalog.ConfigIDs())
}

// SetAlertSink routes controller alerts to fn. A nil fn restores the default
// stderr output.
func (a *App) SetAlertSink(fn func(title, message string)) {
	if fn == nil {
		fn = stderrAlert
	}
	a.alerts.set(fn)
}

// Close closes the application and releases resources. A running tunnel is
// left up.
func (a *App) Close() error {
	if a.Controller != nil {
		a.Controller.Close()
	}
	if a.timer != nil {
		a.timer.Close()
	}
	if a.sampler != nil {
		a.sampler.Close()
	}
	var err error
	if a.Storage != nil {
		err = a.Storage.Close()
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
	return err
}

// alertRelay forwards controller alerts to a replaceable sink.
type alertRelay struct {
	mu   sync.Mutex
	sink func(title, message string)
}

func (r *alertRelay) set(fn func(title, message string)) {
	r.mu.Lock()
	r.sink = fn
	r.mu.Unlock()
}

func (r *alertRelay) Alert(title, message string) {
	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()
	sink(title, message)
}

func stderrAlert(title, message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
}
