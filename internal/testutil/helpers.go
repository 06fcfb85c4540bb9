// Package testutil provides test helpers and utilities for archstrap tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
)

// MemFS returns an in-memory file system seeded with files, keyed by
// absolute path.
func MemFS(t testing.TB, files map[string]string) *filesystem.AferoFileSystem {
	t.Helper()

	fs := filesystem.NewMemFileSystem()
	for path, content := range files {
		require.NoError(t, fs.WriteFile(path, []byte(content), 0o644), "failed to seed %s", path)
	}
	return fs
}

// WriteManifest renders the builder and stores it at path.
func WriteManifest(t testing.TB, fs *filesystem.AferoFileSystem, path string, b *ManifestBuilder) {
	t.Helper()

	data, err := b.ToYAML()
	require.NoError(t, err, "failed to render manifest")
	require.NoError(t, fs.WriteFile(path, []byte(data), 0o644), "failed to write manifest")
}
