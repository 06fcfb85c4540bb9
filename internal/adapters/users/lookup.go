// Package users provides local account lookup adapters.
package users

import (
	"os/user"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// OSLookup resolves accounts through the os/user package.
type OSLookup struct{}

// NewOSLookup creates an OSLookup.
func NewOSLookup() *OSLookup {
	return &OSLookup{}
}

// Current returns the account running the process.
func (OSLookup) Current() (ports.UserInfo, error) {
	u, err := user.Current()
	if err != nil {
		return ports.UserInfo{}, err
	}
	return toInfo(u), nil
}

// Lookup resolves an account by name.
func (OSLookup) Lookup(name string) (ports.UserInfo, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return ports.UserInfo{}, err
	}
	return toInfo(u), nil
}

func toInfo(u *user.User) ports.UserInfo {
	return ports.UserInfo{Name: u.Username, UID: u.Uid, GID: u.Gid, Home: u.HomeDir}
}

var _ ports.UserLookup = (*OSLookup)(nil)
