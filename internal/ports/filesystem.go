package ports

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem provides the file operations needed by probes and file steps.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	FileHash(path string) (string, error)
	Chown(path string, uid, gid int) error
}

// ExpandHome expands a leading ~ to the given home directory.
// The home directory is always passed in explicitly so that paths resolve
// against the target user rather than the account running the process.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") && home != "" {
		return filepath.Join(home, path[2:])
	}
	return path
}

// HashBytes returns the hex-encoded SHA256 of data, in the format FileHash uses.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
