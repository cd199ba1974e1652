// Package assets holds the read-only OpenVPN profiles shipped with the binary.
package assets

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed profiles/*.ovpn
var bundled embed.FS

// Profiles returns the bundled profile tree rooted at the profile directory.
func Profiles() fs.FS {
	sub, err := fs.Sub(bundled, "profiles")
	if err != nil {
		panic(err)
	}
	return sub
}

// Source returns dir as the asset tree when set, falling back to the bundled
// profiles otherwise.
func Source(dir string) fs.FS {
	if dir == "" {
		return Profiles()
	}
	return os.DirFS(dir)
}
