// Package network provides name resolution adapters.
package network

import (
	"context"
	"net"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// Resolver resolves host names using the system resolver.
type Resolver struct {
	resolver *net.Resolver
}

// NewResolver creates a Resolver backed by net.DefaultResolver.
func NewResolver() *Resolver {
	return &Resolver{resolver: net.DefaultResolver}
}

// LookupHost returns the addresses of host.
func (r *Resolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return r.resolver.LookupHost(ctx, host)
}

var _ ports.HostResolver = (*Resolver)(nil)
