package provision

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	vperrors "vulture/pkg/errors"
)

// provisionWorkers bounds concurrent copies in ProvisionAll.
const provisionWorkers = 4

// Provisioner makes bundled profiles available in writable storage.
type Provisioner struct {
	store Storage
	log   logrus.FieldLogger
	group singleflight.Group
}

// New creates a provisioner over store.
func New(store Storage, log logrus.FieldLogger) *Provisioner {
	return &Provisioner{store: store, log: log}
}

// Path returns where configID is (or would be) provisioned.
func (p *Provisioner) Path(configID string) string {
	return filepath.Join(p.store.Root(), configID)
}

// EnsureProvisioned returns the local path for configID, copying it from the
// bundled assets the first time. Concurrent callers for the same id share one
// copy.
func (p *Provisioner) EnsureProvisioned(ctx context.Context, configID string) (string, error) {
	if err := validateID(configID); err != nil {
		return "", &vperrors.ProvisioningError{ConfigID: configID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &vperrors.ProvisioningError{ConfigID: configID, Err: err}
	}

	v, err, _ := p.group.Do(configID, func() (interface{}, error) {
		path := p.Path(configID)
		exists, err := p.store.Exists(path)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		if exists {
			return path, nil
		}
		if err := p.store.CopyBundledAsset(configID, path); err != nil {
			return "", err
		}
		p.log.WithField("config_id", configID).Debug("provisioned profile")
		return path, nil
	})
	if err != nil {
		return "", &vperrors.ProvisioningError{ConfigID: configID, Err: err}
	}
	return v.(string), nil
}

// Read returns the text of a provisioned profile.
func (p *Provisioner) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &vperrors.ReadError{Path: path, Err: err}
	}
	text, err := p.store.ReadTextFile(path)
	if err != nil {
		return "", &vperrors.ReadError{Path: path, Err: err}
	}
	return text, nil
}

// ProvisionAll provisions every id, continuing past individual failures.
// The returned error joins all failures.
func (p *Provisioner) ProvisionAll(ctx context.Context, configIDs []string) error {
	errs := make([]error, len(configIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(provisionWorkers)
	for i, id := range configIDs {
		g.Go(func() error {
			if _, err := p.EnsureProvisioned(ctx, id); err != nil {
				p.log.WithError(err).WithField("config_id", id).Warn("failed to provision profile")
				errs[i] = err
			}
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

func validateID(configID string) error {
	if configID == "" || configID == "." || configID == ".." ||
		strings.ContainsAny(configID, `/\`) || configID != filepath.Base(configID) {
		return vperrors.ErrInvalidAssetID
	}
	return nil
}
