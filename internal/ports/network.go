package ports

import "context"

// HostResolver resolves host names to addresses.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}
