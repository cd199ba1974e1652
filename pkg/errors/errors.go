package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// Tunnel errors
	ErrTunnelNotFound   = errors.New("openvpn binary not found")
	ErrTunnelStart      = errors.New("tunnel failed to start")
	ErrTunnelAuthFailed = errors.New("tunnel authentication failed")
	ErrTunnelTimeout    = errors.New("tunnel did not come up in time")
	ErrNotRoot          = errors.New("root privileges required: run with sudo or set tunnel.elevate")

	// Connection errors
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrBusy             = errors.New("another connection operation is in progress")

	// Selection errors
	ErrNoSelection    = errors.New("no server selected")
	ErrUnknownServer  = errors.New("server not found in catalog")
	ErrEmptyCatalog   = errors.New("catalog is empty")
	ErrInvalidEntry   = errors.New("invalid catalog entry")
	ErrInvalidAssetID = errors.New("invalid config identifier")

	// Provisioning errors
	ErrAssetNotFound = errors.New("bundled config asset not found")

	// Timer and sampler errors
	ErrTimerRunning   = errors.New("session timer already running")
	ErrSamplerRunning = errors.New("sampler already running")
)

// ProvisioningError is returned when a config asset could not be made
// available in writable storage.
type ProvisioningError struct {
	ConfigID string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision '%s': %v", e.ConfigID, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// ReadError is returned when a provisioned config file cannot be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// TunnelError wraps failures reported by the tunnel backend.
type TunnelError struct {
	Op  string // connect, disconnect
	Err error
}

func (e *TunnelError) Error() string {
	return fmt.Sprintf("tunnel %s: %v", e.Op, e.Err)
}

func (e *TunnelError) Unwrap() error {
	return e.Err
}

// SelectionError represents a missing or unresolvable server selection
type SelectionError struct {
	ConfigID string
	Err      error
}

func (e *SelectionError) Error() string {
	if e.ConfigID != "" {
		return fmt.Sprintf("selection '%s': %v", e.ConfigID, e.Err)
	}
	return fmt.Sprintf("selection: %v", e.Err)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}
