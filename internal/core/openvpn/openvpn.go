package openvpn

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"vulture/internal/core/types"
	"vulture/internal/paths"
	vperrors "vulture/pkg/errors"
)

const (
	markerReady      = "Initialization Sequence Completed"
	markerAuthFailed = "AUTH_FAILED"

	pollInterval = 100 * time.Millisecond

	procRoot = "/proc"
)

// Options configures the OpenVPN backend
type Options struct {
	Binary         string // empty: search common locations
	Elevate        string // e.g. "sudo" or "pkexec"; empty when already root
	Device         string
	RuntimeDir     string
	ConnectTimeout time.Duration
	StopTimeout    time.Duration
	Log            logrus.FieldLogger
}

// Backend runs one detached openvpn process at a time.
type Backend struct {
	opts        Options
	profilePath string
	logPath     string
	pidPath     string

	mu        sync.Mutex
	cmd       *exec.Cmd
	exited    chan struct{}
	startedAt time.Time
}

// New creates a backend keeping its runtime files in opts.RuntimeDir.
func New(opts Options) (*Backend, error) {
	if opts.RuntimeDir == "" {
		dir, err := paths.CacheDir()
		if err != nil {
			return nil, err
		}
		opts.RuntimeDir = dir
	}
	if opts.Device == "" {
		opts.Device = "tun0"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	return &Backend{
		opts:        opts,
		profilePath: filepath.Join(opts.RuntimeDir, "active.ovpn"),
		logPath:     filepath.Join(opts.RuntimeDir, "openvpn.log"),
		pidPath:     filepath.Join(opts.RuntimeDir, "openvpn.pid"),
	}, nil
}

// LogPath returns the openvpn output file.
func (b *Backend) LogPath() string { return b.logPath }

// Connect writes the profile, starts openvpn and waits until it reports the
// tunnel is up.
func (b *Backend) Connect(ctx context.Context, cfg *types.TunnelConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.activeLocked() {
		return vperrors.ErrAlreadyConnected
	}

	binary, err := b.findBinary()
	if err != nil {
		return err
	}
	if err := b.checkPrivileges(); err != nil {
		return err
	}

	if err := os.WriteFile(b.profilePath, []byte(cfg.ProfileText), 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	logFile, err := os.Create(b.logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	paths.ChownToRealUser(b.logPath)

	name, args := b.command(binary, cfg)
	cmd := exec.Command(name, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// Own process group so the tunnel outlives the CLI invocation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	log := b.opts.Log.WithFields(logrus.Fields{"server": cfg.DisplayName, "device": b.opts.Device})
	log.WithField("args", strings.Join(args, " ")).Debug("starting openvpn")

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("%w: %v", vperrors.ErrTunnelStart, err)
	}

	exited := make(chan struct{})
	b.cmd = cmd
	b.exited = exited
	b.startedAt = time.Now()

	if err := os.WriteFile(b.pidPath, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		log.WithError(err).Warn("failed to write pid file, a later run will not find this tunnel")
	} else {
		paths.ChownToRealUser(b.pidPath)
	}

	go func() {
		cmd.Wait()
		logFile.Close()
		close(exited)
	}()

	if err := b.awaitReady(ctx, exited); err != nil {
		log.WithError(err).Warn("openvpn did not come up")
		b.stopLocked(context.Background())
		return err
	}

	log.WithField("pid", cmd.Process.Pid).Info("tunnel up")
	return nil
}

// awaitReady polls the log for the readiness or failure markers.
func (b *Backend) awaitReady(ctx context.Context, exited <-chan struct{}) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(b.opts.ConnectTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return vperrors.ErrTunnelTimeout
		case <-exited:
			if readiness(b.readLog()) == stateAuthFailed {
				return vperrors.ErrTunnelAuthFailed
			}
			return fmt.Errorf("%w: %s", vperrors.ErrTunnelStart, lastLines(b.readLog(), 3))
		case <-ticker.C:
			switch readiness(b.readLog()) {
			case stateReady:
				return nil
			case stateAuthFailed:
				return vperrors.ErrTunnelAuthFailed
			}
		}
	}
}

// Disconnect stops the running openvpn process, if any.
func (b *Backend) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopLocked(ctx)
}

func (b *Backend) stopLocked(ctx context.Context) error {
	pid := b.pidLocked()
	defer func() {
		if !alive(pid) {
			b.cmd = nil
			b.exited = nil
			os.Remove(b.pidPath)
			os.Remove(b.profilePath)
		}
	}()

	if pid <= 0 || !alive(pid) {
		return nil
	}

	if err := b.signal(pid, unix.SIGTERM); err != nil {
		return err
	}
	if b.waitExit(ctx, pid, b.opts.StopTimeout) {
		return nil
	}

	b.opts.Log.WithField("pid", pid).Warn("openvpn ignored SIGTERM, killing")
	if err := b.signal(pid, unix.SIGKILL); err != nil {
		return err
	}
	if b.waitExit(ctx, pid, b.opts.StopTimeout) {
		return nil
	}
	return fmt.Errorf("openvpn (pid %d) is still running", pid)
}

// signal delivers sig, falling back to the elevation helper when the process
// belongs to another user.
func (b *Backend) signal(pid int, sig unix.Signal) error {
	err := unix.Kill(pid, sig)
	switch {
	case err == nil, err == unix.ESRCH:
		return nil
	case err == unix.EPERM && b.opts.Elevate != "":
		out, kerr := exec.Command(b.opts.Elevate, "kill", "-"+strconv.Itoa(int(sig)), strconv.Itoa(pid)).CombinedOutput()
		if kerr != nil {
			return fmt.Errorf("failed to signal openvpn: %v: %s", kerr, bytes.TrimSpace(out))
		}
		return nil
	}
	return fmt.Errorf("failed to signal openvpn: %w", err)
}

func (b *Backend) waitExit(ctx context.Context, pid int, timeout time.Duration) bool {
	var exited <-chan struct{}
	if b.cmd != nil && b.cmd.Process != nil && b.cmd.Process.Pid == pid {
		exited = b.exited
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		select {
		case <-exited:
			return true
		case <-ticker.C:
			if exited == nil && !alive(pid) {
				return true
			}
		case <-deadline:
			return !alive(pid)
		case <-ctx.Done():
			return !alive(pid)
		}
	}
}

// Active reports whether an openvpn process started by this or an earlier
// invocation is running.
func (b *Backend) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeLocked()
}

func (b *Backend) activeLocked() bool {
	if b.exited != nil {
		select {
		case <-b.exited:
			return false
		default:
			return true
		}
	}
	return alive(b.pidLocked())
}

// StartedAt returns when the current process was launched by this backend.
func (b *Backend) StartedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startedAt
}

func (b *Backend) pidLocked() int {
	if b.cmd != nil && b.cmd.Process != nil {
		return b.cmd.Process.Pid
	}
	data, err := os.ReadFile(b.pidPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !b.owns(pid) {
		return 0
	}
	return pid
}

// owns reports whether pid was launched with our profile. The pid file may
// outlive its process and the number be reused. Without procfs the pid file
// is trusted.
func (b *Backend) owns(pid int) bool {
	if pid <= 0 {
		return false
	}
	cmdline, err := os.ReadFile(filepath.Join(procRoot, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		if _, serr := os.Stat(filepath.Join(procRoot, "self")); serr != nil {
			return true
		}
		return false
	}
	for _, arg := range bytes.Split(cmdline, []byte{0}) {
		if string(arg) == b.profilePath {
			return true
		}
	}
	return false
}

func (b *Backend) readLog() string {
	data, _ := os.ReadFile(b.logPath)
	return string(data)
}

// command returns the program and arguments used to launch openvpn.
func (b *Backend) command(binary string, cfg *types.TunnelConfig) (string, []string) {
	args := []string{
		"--config", b.profilePath,
		"--dev", b.opts.Device,
		"--dev-type", "tun",
		"--verb", "3",
		"--setenv", "IV_GUI_VER", cfg.BundleID,
		"--setenv", "UV_DISPLAY_NAME", cfg.DisplayName,
	}
	if v := cfg.CompatMode.OpenVPNVersion(); v != "" {
		args = append(args, "--compat-mode", v)
	}
	if b.opts.Elevate != "" {
		return b.opts.Elevate, append([]string{binary}, args...)
	}
	return binary, args
}

// findBinary finds the openvpn binary in common locations
func (b *Backend) findBinary() (string, error) {
	locations := []string{"openvpn", "/usr/sbin/openvpn", "/usr/local/sbin/openvpn", "/opt/homebrew/sbin/openvpn"}
	if b.opts.Binary != "" {
		locations = []string{b.opts.Binary}
	}
	for _, loc := range locations {
		if path, err := exec.LookPath(loc); err == nil {
			return path, nil
		}
	}
	return "", vperrors.ErrTunnelNotFound
}

// alive reports whether pid names a live process. EPERM means it exists but
// belongs to someone else (root when started through sudo).
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
