package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/archstrap/internal/adapters/filesystem"
)

const minimalYAML = "features:\n  - name: base\n    packages: [git]\n"

func noXDG(string) (string, error) {
	return "", errors.New("not found")
}

func TestLoader_ExplicitPath(t *testing.T) {
	t.Parallel()

	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/cfg/desk.yaml", []byte(minimalYAML), 0o644))

	loader := NewLoader(fs, WithXDGSearch(noXDG))
	m, source, err := loader.Load("/cfg/desk.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/cfg/desk.yaml", source)
	assert.Equal(t, "base", m.Features[0].Name)
}

func TestLoader_ExplicitPathMissing(t *testing.T) {
	t.Parallel()

	loader := NewLoader(filesystem.NewMemFileSystem(), WithXDGSearch(noXDG), WithEmbedded([]byte(minimalYAML)))
	_, _, err := loader.Load("/nope.yaml")
	assert.True(t, IsUserError(err, ErrCodeConfigNotFound))
}

func TestLoader_LocalBeforeXDG(t *testing.T) {
	t.Parallel()

	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/work/archstrap.toml", []byte("[[features]]\nname = \"local\"\npackages = [\"git\"]\n"), 0o644))
	require.NoError(t, fs.WriteFile("/xdg/archstrap/manifest.yaml", []byte(minimalYAML), 0o644))

	loader := NewLoader(fs,
		WithWorkDir("/work"),
		WithXDGSearch(func(rel string) (string, error) { return "/xdg/" + rel, nil }),
	)
	m, source, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/work/archstrap.toml", source)
	assert.Equal(t, "local", m.Features[0].Name)
}

func TestLoader_XDG(t *testing.T) {
	t.Parallel()

	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/xdg/archstrap/manifest.yaml", []byte(minimalYAML), 0o644))

	loader := NewLoader(fs,
		WithWorkDir("/work"),
		WithXDGSearch(func(rel string) (string, error) { return "/xdg/" + rel, nil }),
	)
	_, source, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/xdg/archstrap/manifest.yaml", source)
}

func TestLoader_EmbeddedFallback(t *testing.T) {
	t.Parallel()

	loader := NewLoader(filesystem.NewMemFileSystem(),
		WithWorkDir("/work"),
		WithXDGSearch(noXDG),
		WithEmbedded([]byte(minimalYAML)),
	)
	m, source, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, EmbeddedSource, source)
	assert.Len(t, m.Features, 1)
}

func TestLoader_NothingFound(t *testing.T) {
	t.Parallel()

	loader := NewLoader(filesystem.NewMemFileSystem(), WithWorkDir("/work"), WithXDGSearch(noXDG))
	_, _, err := loader.Load("")
	assert.True(t, IsUserError(err, ErrCodeConfigNotFound))
}

func TestLoader_ParseErrors(t *testing.T) {
	t.Parallel()

	fs := filesystem.NewMemFileSystem()
	require.NoError(t, fs.WriteFile("/a.yaml", []byte("features:\n  name: [\n"), 0o644))
	require.NoError(t, fs.WriteFile("/b.toml", []byte("features = ["), 0o644))

	loader := NewLoader(fs, WithXDGSearch(noXDG))

	_, _, err := loader.Load("/a.yaml")
	assert.True(t, IsUserError(err, ErrCodeConfigParse))

	_, _, err = loader.Load("/b.toml")
	assert.True(t, IsUserError(err, ErrCodeConfigParse))
}
