// Package config holds the bootstrap manifest, feature flags and run options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default network timing.
const (
	DefaultNetworkTimeout = 5 * time.Second
	DefaultNetworkBudget  = 60 * time.Second
	DefaultFileMode       = os.FileMode(0o644)
)

// Format identifies the manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath derives the manifest format from a file extension.
// Anything other than .toml is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// ServiceScope selects the systemd instance a unit belongs to.
type ServiceScope string

const (
	ScopeSystem ServiceScope = "system"
	ScopeUser   ServiceScope = "user"
)

// Manifest is the static description of the desired system state.
type Manifest struct {
	Features []Feature      `yaml:"features" toml:"features"`
	Pacman   PacmanConfig   `yaml:"pacman" toml:"pacman"`
	Network  NetworkConfig  `yaml:"network" toml:"network"`
	Files    []FileEntry    `yaml:"files" toml:"files"`
	Repos    []RepoEntry    `yaml:"repos" toml:"repos"`
	Commands []CommandEntry `yaml:"commands" toml:"commands"`
}

// Feature groups packages, services and group memberships behind one flag.
type Feature struct {
	Name     string    `yaml:"name" toml:"name"`
	Flag     string    `yaml:"flag,omitempty" toml:"flag,omitempty"`
	Default  bool      `yaml:"default" toml:"default"`
	Critical bool      `yaml:"critical,omitempty" toml:"critical,omitempty"`
	Packages []string  `yaml:"packages" toml:"packages"`
	Services []Service `yaml:"services,omitempty" toml:"services,omitempty"`
	Groups   []string  `yaml:"groups,omitempty" toml:"groups,omitempty"`
}

// FlagName returns the environment variable that toggles the feature.
func (f Feature) FlagName() string {
	if f.Flag != "" {
		return f.Flag
	}
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(f.Name))
	return "ENABLE_" + name
}

// HasPackage reports whether the feature installs the named package.
func (f Feature) HasPackage(name string) bool {
	for _, p := range f.Packages {
		if p == name {
			return true
		}
	}
	return false
}

// Service is a systemd unit enabled and started by a feature.
type Service struct {
	Name  string       `yaml:"name" toml:"name"`
	Scope ServiceScope `yaml:"scope,omitempty" toml:"scope,omitempty"`
}

// EffectiveScope returns the scope, defaulting to system.
func (s Service) EffectiveScope() ServiceScope {
	if s.Scope == "" {
		return ScopeSystem
	}
	return s.Scope
}

// PacmanConfig configures the package manager itself.
type PacmanConfig struct {
	Multilib bool `yaml:"multilib" toml:"multilib"`
}

// NetworkConfig describes the connectivity requirement of network steps.
type NetworkConfig struct {
	WaitFor string      `yaml:"wait_for,omitempty" toml:"wait_for,omitempty"`
	Timeout string      `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Budget  string      `yaml:"budget,omitempty" toml:"budget,omitempty"`
	Wifi    *WifiConfig `yaml:"wifi,omitempty" toml:"wifi,omitempty"`
}

// AttemptTimeout returns the per-attempt resolution timeout.
func (n NetworkConfig) AttemptTimeout() time.Duration {
	return parseDurationOr(n.Timeout, DefaultNetworkTimeout)
}

// BudgetDuration returns the overall time allowed for the network to come up.
func (n NetworkConfig) BudgetDuration() time.Duration {
	return parseDurationOr(n.Budget, DefaultNetworkBudget)
}

// WifiConfig names a NetworkManager Wi-Fi connection to establish.
// The password is never stored in the manifest; PasswordEnv names the
// environment variable holding it.
type WifiConfig struct {
	SSID        string `yaml:"ssid" toml:"ssid"`
	PasswordEnv string `yaml:"password_env,omitempty" toml:"password_env,omitempty"`
}

// FileEntry is a configuration file rendered from a template.
type FileEntry struct {
	ID        string            `yaml:"id" toml:"id"`
	Path      string            `yaml:"path" toml:"path"`
	Template  string            `yaml:"template" toml:"template"`
	Vars      map[string]string `yaml:"vars,omitempty" toml:"vars,omitempty"`
	Mode      string            `yaml:"mode,omitempty" toml:"mode,omitempty"`
	Feature   string            `yaml:"feature,omitempty" toml:"feature,omitempty"`
	DependsOn []string          `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
}

// FileMode parses the octal mode, defaulting to 0644.
func (f FileEntry) FileMode() (os.FileMode, error) {
	if f.Mode == "" {
		return DefaultFileMode, nil
	}
	v, err := strconv.ParseUint(f.Mode, 8, 32)
	if err != nil || v > 0o7777 {
		return 0, fmt.Errorf("invalid file mode %q", f.Mode)
	}
	return os.FileMode(v), nil
}

// RepoEntry is a git repository cloned into the target user's home.
type RepoEntry struct {
	ID        string   `yaml:"id" toml:"id"`
	URL       string   `yaml:"url" toml:"url"`
	Dest      string   `yaml:"dest" toml:"dest"`
	Feature   string   `yaml:"feature,omitempty" toml:"feature,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
}

// CommandEntry is an arbitrary command run once, guarded by a path it creates.
type CommandEntry struct {
	ID        string   `yaml:"id" toml:"id"`
	Argv      []string `yaml:"argv" toml:"argv"`
	Creates   string   `yaml:"creates" toml:"creates"`
	Feature   string   `yaml:"feature,omitempty" toml:"feature,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	Retryable bool     `yaml:"retryable,omitempty" toml:"retryable,omitempty"`
	AsUser    bool     `yaml:"as_user,omitempty" toml:"as_user,omitempty"`
}

// ErrEmptyManifest is returned when a manifest declares nothing to do.
var ErrEmptyManifest = errors.New("manifest declares no features, files, repos or commands")

// ParseManifest decodes a manifest and validates it.
// Unknown keys are rejected so typos surface instead of being ignored.
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var m Manifest

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Feature looks up a feature by name.
func (m *Manifest) Feature(name string) (Feature, bool) {
	for _, f := range m.Features {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// FeatureInstalling returns the first feature whose package list contains pkg.
func (m *Manifest) FeatureInstalling(pkg string) (Feature, bool) {
	for _, f := range m.Features {
		if f.HasPackage(pkg) {
			return f, true
		}
	}
	return Feature{}, false
}

// Validate checks structural rules that do not depend on the target system.
func (m *Manifest) Validate() error {
	if len(m.Features) == 0 && len(m.Files) == 0 && len(m.Repos) == 0 && len(m.Commands) == 0 {
		return NewUserError(ErrCodeValidationFailed, ErrEmptyManifest.Error()).
			WithUnderlying(ErrEmptyManifest).
			WithSuggestion("Declare at least one feature, or omit --manifest to use the default manifest.")
	}

	errs := NewErrorList()
	m.validateFeatures(errs)
	m.validateNetwork(errs)
	m.validateFiles(errs)
	m.validateRepos(errs)
	m.validateCommands(errs)
	return errs.AsError()
}

func (m *Manifest) validateFeatures(errs *ErrorList) {
	names := make(map[string]bool)
	flags := make(map[string]string)
	for i, f := range m.Features {
		field := fmt.Sprintf("features[%d]", i)
		if f.Name == "" {
			errs.AddValidation(field+".name", "is required", "Give every feature a short lowercase name such as 'docker'.")
			continue
		}
		if names[f.Name] {
			errs.AddValidation(field+".name", fmt.Sprintf("duplicate feature %q", f.Name), "Feature names must be unique.")
		}
		names[f.Name] = true

		if other, ok := flags[f.FlagName()]; ok {
			errs.AddValidation(field+".flag", fmt.Sprintf("flag %s already used by feature %q", f.FlagName(), other), "")
		}
		flags[f.FlagName()] = f.Name

		for j, s := range f.Services {
			sf := fmt.Sprintf("%s.services[%d]", field, j)
			if s.Name == "" {
				errs.AddValidation(sf+".name", "is required", "")
			}
			if scope := s.EffectiveScope(); scope != ScopeSystem && scope != ScopeUser {
				errs.AddValidation(sf+".scope", fmt.Sprintf("unknown scope %q", s.Scope), "Use 'system' or 'user'.")
			}
		}
		if (len(f.Services) > 0 || len(f.Groups) > 0) && len(f.Packages) == 0 {
			errs.AddValidation(field+".packages", "services and groups require at least one package", "")
		}
	}
}

func (m *Manifest) validateNetwork(errs *ErrorList) {
	durations := []struct{ field, value string }{
		{"network.timeout", m.Network.Timeout},
		{"network.budget", m.Network.Budget},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			errs.AddValidation(d.field, fmt.Sprintf("invalid duration %q", d.value), "Use Go duration syntax such as '5s' or '1m'.")
		}
	}
	if m.Network.Wifi != nil && m.Network.Wifi.SSID == "" {
		errs.AddValidation("network.wifi.ssid", "is required", "")
	}
}

func (m *Manifest) validateFiles(errs *ErrorList) {
	ids := make(map[string]bool)
	for i, f := range m.Files {
		field := fmt.Sprintf("files[%d]", i)
		m.validateEntryID(errs, field, f.ID, ids)
		if f.Path == "" {
			errs.AddValidation(field+".path", "is required", "")
		}
		if _, err := f.FileMode(); err != nil {
			errs.AddValidation(field+".mode", err.Error(), "Use an octal mode such as '0644'.")
		}
		m.validateFeatureRef(errs, field, f.Feature)
	}
}

func (m *Manifest) validateRepos(errs *ErrorList) {
	ids := make(map[string]bool)
	for i, r := range m.Repos {
		field := fmt.Sprintf("repos[%d]", i)
		m.validateEntryID(errs, field, r.ID, ids)
		if r.URL == "" {
			errs.AddValidation(field+".url", "is required", "")
		}
		if r.Dest == "" {
			errs.AddValidation(field+".dest", "is required", "")
		}
		m.validateFeatureRef(errs, field, r.Feature)
	}
}

func (m *Manifest) validateCommands(errs *ErrorList) {
	ids := make(map[string]bool)
	for i, c := range m.Commands {
		field := fmt.Sprintf("commands[%d]", i)
		m.validateEntryID(errs, field, c.ID, ids)
		if len(c.Argv) == 0 || c.Argv[0] == "" {
			errs.AddValidation(field+".argv", "is required", "Give the program and its arguments as a list; shell strings are not interpreted.")
		}
		if c.Creates == "" {
			errs.AddValidation(field+".creates", "is required", "Name a path the command creates so reruns can skip it.")
		}
		m.validateFeatureRef(errs, field, c.Feature)
	}
}

func (m *Manifest) validateEntryID(errs *ErrorList, field, id string, seen map[string]bool) {
	if id == "" {
		errs.AddValidation(field+".id", "is required", "")
		return
	}
	if seen[id] {
		errs.AddValidation(field+".id", fmt.Sprintf("duplicate id %q", id), "")
	}
	seen[id] = true
}

func (m *Manifest) validateFeatureRef(errs *ErrorList, field, feature string) {
	if feature == "" {
		return
	}
	if _, ok := m.Feature(feature); !ok {
		errs.AddValidation(field+".feature", fmt.Sprintf("unknown feature %q", feature), "Reference a feature declared under 'features'.")
	}
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
