package probe

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
)

// SystemctlArgs builds a systemctl argument vector for the unit's scope.
// User units are addressed through the user's service manager with -M user@.
func SystemctlArgs(scope config.ServiceScope, user string, args ...string) []string {
	if scope == config.ScopeUser {
		return append([]string{"--user", "-M", user + "@"}, args...)
	}
	return args
}

// IsServiceActiveEnabled reports whether a unit is both enabled and active.
func (p *Prober) IsServiceActiveEnabled(ctx context.Context, unit string, scope config.ServiceScope, user string) (bool, error) {
	enabled, err := p.IsServiceEnabled(ctx, unit, scope, user)
	if err != nil {
		return false, err
	}
	active, err := p.IsServiceActive(ctx, unit, scope, user)
	if err != nil {
		return false, err
	}
	return enabled && active, nil
}

// IsServiceEnabled interprets `systemctl is-enabled`.
func (p *Prober) IsServiceEnabled(ctx context.Context, unit string, scope config.ServiceScope, user string) (bool, error) {
	result, err := p.run(ctx, "systemctl", SystemctlArgs(scope, user, "is-enabled", unit)...)
	if err != nil {
		return false, err
	}

	state := strings.TrimSpace(result.Stdout)
	switch state {
	case "enabled", "enabled-runtime", "static", "indirect", "generated", "alias":
		return true, nil
	case "disabled", "masked", "masked-runtime", "linked", "linked-runtime":
		return false, nil
	}
	return false, unknownf("systemctl is-enabled %s: unrecognised state %q", unit, state)
}

// IsServiceActive interprets `systemctl is-active`.
func (p *Prober) IsServiceActive(ctx context.Context, unit string, scope config.ServiceScope, user string) (bool, error) {
	result, err := p.run(ctx, "systemctl", SystemctlArgs(scope, user, "is-active", unit)...)
	if err != nil {
		return false, err
	}

	state := strings.TrimSpace(result.Stdout)
	switch state {
	case "active", "reloading":
		return true, nil
	case "inactive", "failed", "activating", "deactivating":
		return false, nil
	}
	return false, unknownf("systemctl is-active %s: unrecognised state %q", unit, state)
}
