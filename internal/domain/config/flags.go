package config

import (
	"sort"
	"strings"
)

// Flags records which features are enabled for a run, keyed by feature name.
type Flags map[string]bool

// Enabled reports whether the named feature is on. Unknown names are off.
func (f Flags) Enabled(feature string) bool {
	return f[feature]
}

// EnabledNames returns the enabled feature names in sorted order.
func (f Flags) EnabledNames() []string {
	names := make([]string, 0, len(f))
	for name, on := range f {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ParseFlag interprets an ENABLE_* value.
func ParseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, NewInvalidFlagError("flag", value)
}

// ResolveFlags decides every feature's state from the environment, falling
// back to the manifest default when the variable is unset.
func (m *Manifest) ResolveFlags(env map[string]string) (Flags, error) {
	flags := make(Flags, len(m.Features))
	errs := NewErrorList()

	for _, f := range m.Features {
		raw, ok := env[f.FlagName()]
		if !ok {
			flags[f.Name] = f.Default
			continue
		}
		on, err := ParseFlag(raw)
		if err != nil {
			errs.Add(NewInvalidFlagError(f.FlagName(), raw))
			continue
		}
		flags[f.Name] = on
	}

	if err := errs.AsError(); err != nil {
		return nil, err
	}
	return flags, nil
}
