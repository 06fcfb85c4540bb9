package config

// TargetUser is the account whose home, groups and user services are configured.
// It is resolved once per run and never read from ambient process state afterwards.
type TargetUser struct {
	Name string
	UID  int
	GID  int
	Home string
}

// IsZero reports whether no user has been resolved.
func (u TargetUser) IsZero() bool {
	return u.Name == ""
}
