package provision

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"vulture/internal/paths"
	vperrors "vulture/pkg/errors"
)

// Storage is the filesystem accessor the provisioner works against.
type Storage interface {
	// Root is the writable directory provisioned files live in.
	Root() string
	Exists(path string) (bool, error)
	CopyBundledAsset(assetID, destPath string) error
	ReadTextFile(path string) (string, error)
}

// FSStorage copies assets out of a read-only fs.FS into a writable directory.
type FSStorage struct {
	assets fs.FS
	root   string
}

// NewFSStorage creates the writable root if needed.
func NewFSStorage(assets fs.FS, root string) (*FSStorage, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &FSStorage{assets: assets, root: root}, nil
}

func (s *FSStorage) Root() string { return s.root }

func (s *FSStorage) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}

// CopyBundledAsset writes the asset to a temp file next to destPath and
// renames it into place so readers never observe a partial profile.
func (s *FSStorage) CopyBundledAsset(assetID, destPath string) error {
	src, err := s.assets.Open(assetID)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", assetID, vperrors.ErrAssetNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open asset: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".provision-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy asset: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("failed to move asset into place: %w", err)
	}
	paths.ChownToRealUser(destPath)
	return nil
}

func (s *FSStorage) ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
