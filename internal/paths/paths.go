package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

const appName = "vulture"

// HomeDir returns the invoking user's home directory. When the process runs
// under sudo (needed to bring up the tun device) the SUDO_USER home is used so
// that profiles, the database and pid files stay in one place.
func HomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// RealUser returns SUDO_UID/SUDO_GID. ok is false when not running under sudo.
func RealUser() (uid, gid int, ok bool) {
	sudoUID := os.Getenv("SUDO_UID")
	if sudoUID == "" {
		return 0, 0, false
	}
	u, err := strconv.Atoi(sudoUID)
	if err != nil {
		return 0, 0, false
	}
	g, _ := strconv.Atoi(os.Getenv("SUDO_GID"))
	return u, g, true
}

// ChownToRealUser hands path back to the sudo caller. No-op otherwise.
func ChownToRealUser(path string) {
	if uid, gid, ok := RealUser(); ok {
		os.Chown(path, uid, gid)
	}
}

// ensure creates dir under the user's home with the given mode.
func ensure(mode os.FileMode, elem ...string) (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(append([]string{home}, elem...)...)
	if err := os.MkdirAll(dir, mode); err != nil {
		return "", err
	}
	ChownToRealUser(dir)
	return dir, nil
}

// CacheDir returns ~/.cache/vulture (pid file, tunnel log, app log).
func CacheDir() (string, error) {
	return ensure(0755, ".cache", appName)
}

// DataDir returns ~/.local/share/vulture (database).
func DataDir() (string, error) {
	return ensure(0755, ".local", "share", appName)
}

// ConfigDir returns ~/.config/vulture.
func ConfigDir() (string, error) {
	return ensure(0755, ".config", appName)
}

// ProfilesDir returns the writable directory holding provisioned profiles.
// Profiles may embed keys, so the directory is private to the user.
func ProfilesDir() (string, error) {
	return ensure(0700, ".local", "share", appName, "profiles")
}
