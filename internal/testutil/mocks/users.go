package mocks

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// UserLookup is a test double for ports.UserLookup.
type UserLookup struct {
	current ports.UserInfo
	users   map[string]ports.UserInfo
}

// NewUserLookup creates a lookup whose current user is current.
func NewUserLookup(current ports.UserInfo) *UserLookup {
	return &UserLookup{
		current: current,
		users:   map[string]ports.UserInfo{current.Name: current},
	}
}

// AddUser registers another account.
func (u *UserLookup) AddUser(info ports.UserInfo) {
	u.users[info.Name] = info
}

// Current returns the configured current user.
func (u *UserLookup) Current() (ports.UserInfo, error) {
	if u.current.Name == "" {
		return ports.UserInfo{}, fmt.Errorf("current user unknown")
	}
	return u.current, nil
}

// Lookup returns a registered account.
func (u *UserLookup) Lookup(name string) (ports.UserInfo, error) {
	if info, ok := u.users[name]; ok {
		return info, nil
	}
	return ports.UserInfo{}, fmt.Errorf("user: unknown user %s", name)
}

var _ ports.UserLookup = (*UserLookup)(nil)

// ToolLocator is a test double for ports.ToolLocator.
type ToolLocator struct {
	missing map[string]bool
}

// NewToolLocator creates a locator that finds every tool except missing ones.
func NewToolLocator(missing ...string) *ToolLocator {
	m := make(map[string]bool, len(missing))
	for _, name := range missing {
		m[name] = true
	}
	return &ToolLocator{missing: m}
}

// LookPath reports a tool as found under /usr/bin unless it is missing.
func (l *ToolLocator) LookPath(name string) (string, error) {
	if l.missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

var _ ports.ToolLocator = (*ToolLocator)(nil)
