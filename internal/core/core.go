package core

import (
	"context"

	"vulture/internal/core/types"
	"vulture/internal/storage/models"
)

// Tunnel brings a VPN tunnel up and down. At most one tunnel is active.
type Tunnel interface {
	Connect(ctx context.Context, config *types.TunnelConfig) error
	Disconnect(ctx context.Context) error

	// Active reports the real tunnel status, independent of what the
	// controller believes.
	Active() bool
}

// Provisioner makes a server profile available locally.
type Provisioner interface {
	EnsureProvisioned(ctx context.Context, configID string) (string, error)
	Read(ctx context.Context, path string) (string, error)
}

// Clock counts connected seconds.
type Clock interface {
	Start() error
	Resume(elapsed int64) error
	Stop()
	OnTick(fn func(int64))
}

// Sampler reports throughput while connected.
type Sampler interface {
	Start(onSample func(types.Sample)) error
	Stop() error
}

// Notifier shows a blocking, user-facing message.
type Notifier interface {
	Alert(title, message string)
}

// Store persists selection, the active connection and session history.
type Store interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	SetActiveConnection(ctx context.Context, conn *models.ActiveConnection) error
	GetActiveConnection(ctx context.Context) (*models.ActiveConnection, error)
	ClearActiveConnection(ctx context.Context) error

	RecordSession(ctx context.Context, session *models.Session) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Alert(title, message string) { f(title, message) }
