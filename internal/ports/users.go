package ports

// UserInfo describes a local account.
type UserInfo struct {
	Name string
	UID  string
	GID  string
	Home string
}

// UserLookup resolves local accounts.
type UserLookup interface {
	Current() (UserInfo, error)
	Lookup(name string) (UserInfo, error)
}
