// Package filesystem provides file system adapters.
package filesystem

import (
	"os"

	"github.com/spf13/afero"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// AferoFileSystem implements ports.FileSystem on top of an afero.Fs.
// Production code uses the OS filesystem; tests use an in-memory one.
type AferoFileSystem struct {
	fs afero.Fs
}

// NewOSFileSystem creates a FileSystem backed by the real OS filesystem.
func NewOSFileSystem() *AferoFileSystem {
	return &AferoFileSystem{fs: afero.NewOsFs()}
}

// NewMemFileSystem creates a FileSystem backed by memory.
func NewMemFileSystem() *AferoFileSystem {
	return &AferoFileSystem{fs: afero.NewMemMapFs()}
}

// New wraps an arbitrary afero.Fs.
func New(fs afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{fs: fs}
}

// Fs exposes the underlying afero filesystem.
func (a *AferoFileSystem) Fs() afero.Fs {
	return a.fs
}

// ReadFile reads a file and returns its contents.
func (a *AferoFileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// WriteFile writes data to a file, replacing it atomically where the
// backing filesystem supports rename.
func (a *AferoFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".archstrap-tmp"
	if err := afero.WriteFile(a.fs, tmp, data, perm); err != nil {
		return err
	}
	if err := a.fs.Chmod(tmp, perm); err != nil {
		_ = a.fs.Remove(tmp)
		return err
	}
	if err := a.fs.Rename(tmp, path); err != nil {
		_ = a.fs.Remove(tmp)
		return err
	}
	return nil
}

// Exists checks if a file or directory exists.
func (a *AferoFileSystem) Exists(path string) bool {
	ok, err := afero.Exists(a.fs, path)
	return err == nil && ok
}

// MkdirAll creates a directory and all necessary parents.
func (a *AferoFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// FileHash returns a SHA256 hash of a file's contents.
func (a *AferoFileSystem) FileHash(path string) (string, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return "", err
	}
	return ports.HashBytes(data), nil
}

// Chown changes the numeric owner of a file.
func (a *AferoFileSystem) Chown(path string, uid, gid int) error {
	return a.fs.Chown(path, uid, gid)
}

// Ensure AferoFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*AferoFileSystem)(nil)
