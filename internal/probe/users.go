package probe

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/archstrap/internal/domain/config"
)

// ErrNoTargetUser is returned when no non-root target user can be determined.
var ErrNoTargetUser = errors.New("no target user")

// ResolveTargetUser picks the account that owns user-level state.
// Precedence is the explicit name, then SUDO_USER, then the current user.
// Root is only accepted when named explicitly.
func (p *Prober) ResolveTargetUser(explicit, sudoUser string) (config.TargetUser, error) {
	if p.users == nil {
		return config.TargetUser{}, fmt.Errorf("%w: no user lookup configured", ErrNoTargetUser)
	}

	name := explicit
	if name == "" {
		name = sudoUser
	}
	if name == "" {
		current, err := p.users.Current()
		if err != nil {
			return config.TargetUser{}, fmt.Errorf("%w: %v", ErrNoTargetUser, err)
		}
		if current.Name == "root" {
			return config.TargetUser{}, fmt.Errorf("%w: running as root without SUDO_USER; pass --user", ErrNoTargetUser)
		}
		name = current.Name
	}

	info, err := p.users.Lookup(name)
	if err != nil {
		return config.TargetUser{}, fmt.Errorf("%w: %v", ErrNoTargetUser, err)
	}

	uid, err := strconv.Atoi(info.UID)
	if err != nil {
		return config.TargetUser{}, fmt.Errorf("%w: user %s has non-numeric uid %q", ErrNoTargetUser, name, info.UID)
	}
	gid, err := strconv.Atoi(info.GID)
	if err != nil {
		return config.TargetUser{}, fmt.Errorf("%w: user %s has non-numeric gid %q", ErrNoTargetUser, name, info.GID)
	}

	return config.TargetUser{
		Name: info.Name,
		UID:  uid,
		GID:  gid,
		Home: info.Home,
	}, nil
}

// MissingTools returns the tools that cannot be found on the PATH.
func (p *Prober) MissingTools(tools []string) []string {
	missing := make([]string, 0)
	if p.tools == nil {
		return missing
	}
	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if seen[tool] {
			continue
		}
		seen[tool] = true
		if _, err := p.tools.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return missing
}
