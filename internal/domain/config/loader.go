package config

import (
	"errors"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// EmbeddedSource names the built-in manifest in diagnostics.
const EmbeddedSource = "<embedded>"

// localManifestNames are looked up in the working directory, in order.
var localManifestNames = []string{"archstrap.yaml", "archstrap.yml", "archstrap.toml"}

// xdgManifestPath is relative to each XDG config directory.
var xdgManifestPath = filepath.Join("archstrap", "manifest.yaml")

// Loader finds and parses the manifest for a run.
type Loader struct {
	fs        ports.FileSystem
	workDir   string
	embedded  []byte
	searchXDG func(relPath string) (string, error)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithWorkDir sets the directory searched for a local manifest.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// WithEmbedded sets the manifest used when no file is found.
func WithEmbedded(data []byte) LoaderOption {
	return func(l *Loader) {
		l.embedded = data
	}
}

// WithXDGSearch replaces the XDG config lookup.
func WithXDGSearch(search func(relPath string) (string, error)) LoaderOption {
	return func(l *Loader) {
		l.searchXDG = search
	}
}

// NewLoader creates a new Loader reading through fs.
func NewLoader(fs ports.FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:        fs,
		workDir:   ".",
		searchXDG: xdg.SearchConfigFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the manifest path to use: the explicit path, then a local
// archstrap.{yaml,yml,toml}, then $XDG_CONFIG_HOME/archstrap/manifest.yaml.
// An empty result with a nil error selects the embedded manifest.
func (l *Loader) Resolve(explicit string) (string, error) {
	if explicit != "" {
		if !l.fs.Exists(explicit) {
			return "", NewConfigNotFoundError(explicit)
		}
		return explicit, nil
	}

	for _, name := range localManifestNames {
		path := filepath.Join(l.workDir, name)
		if l.fs.Exists(path) {
			return path, nil
		}
	}

	if l.searchXDG != nil {
		if path, err := l.searchXDG(xdgManifestPath); err == nil && l.fs.Exists(path) {
			return path, nil
		}
	}

	if l.embedded == nil {
		return "", NewConfigNotFoundError(filepath.Join(l.workDir, localManifestNames[0])).
			WithSuggestion("Pass --manifest or create archstrap.yaml in the current directory.")
	}
	return "", nil
}

// Load resolves and parses the manifest, returning it with its source.
func (l *Loader) Load(explicit string) (*Manifest, string, error) {
	path, err := l.Resolve(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		m, err := l.parse(EmbeddedSource, l.embedded, FormatYAML)
		return m, EmbeddedSource, err
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, path, NewConfigNotFoundError(path).WithUnderlying(err)
	}
	m, err := l.parse(path, data, FormatFromPath(path))
	return m, path, err
}

func (l *Loader) parse(source string, data []byte, format Format) (*Manifest, error) {
	m, err := ParseManifest(data, format)
	if err == nil {
		return m, nil
	}

	// Validation failures are already user-facing.
	if GetUserError(err) != nil {
		return nil, err
	}
	var list *ErrorList
	if errors.As(err, &list) {
		return nil, err
	}
	if format == FormatYAML {
		return nil, NewYAMLParseError(source, err)
	}
	return nil, NewConfigParseError(source, err)
}
