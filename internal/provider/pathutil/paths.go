// Package pathutil resolves manifest paths against the target user.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// DirMode is the mode for directories created on behalf of a step.
const DirMode os.FileMode = 0o755

// Resolve expands ~ against the user's home and requires an absolute result.
func Resolve(path string, user config.TargetUser) (string, error) {
	expanded := ports.ExpandHome(path, user.Home)
	if strings.HasPrefix(expanded, "~") {
		return "", fmt.Errorf("cannot expand %q without a target user home", path)
	}
	if !filepath.IsAbs(expanded) {
		return "", fmt.Errorf("path %q must be absolute or start with ~/", path)
	}
	return filepath.Clean(expanded), nil
}

// UnderHome reports whether path lies inside the user's home directory.
func UnderHome(path string, user config.TargetUser) bool {
	if user.Home == "" {
		return false
	}
	home := filepath.Clean(user.Home)
	return path == home || strings.HasPrefix(path, home+string(filepath.Separator))
}

// EnsureDir creates dir and any missing parents. Directories it creates
// inside the user's home are handed to the user, so a run as root does not
// leave root-owned directories under ~/.config.
func EnsureDir(fs ports.FileSystem, dir string, user config.TargetUser) error {
	missing := make([]string, 0)
	for d := filepath.Clean(dir); !fs.Exists(d); d = filepath.Dir(d) {
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := fs.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if user.IsZero() {
		return nil
	}
	for i := len(missing) - 1; i >= 0; i-- {
		if !UnderHome(missing[i], user) {
			continue
		}
		if err := fs.Chown(missing[i], user.UID, user.GID); err != nil {
			return fmt.Errorf("chown %s: %w", missing[i], err)
		}
	}
	return nil
}
