package openvpn

import (
	"os"

	vperrors "vulture/pkg/errors"
)

var geteuid = os.Geteuid

// checkPrivileges returns ErrNotRoot if openvpn would start without root and
// no elevate helper is configured.
func (b *Backend) checkPrivileges() error {
	if b.opts.Elevate == "" && geteuid() != 0 {
		return vperrors.ErrNotRoot
	}
	return nil
}
