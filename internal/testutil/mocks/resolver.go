package mocks

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// HostResolver is a test double for ports.HostResolver.
// A host fails to resolve until it has been looked up FailuresBefore times.
type HostResolver struct {
	mu       sync.Mutex
	hosts    map[string][]string
	failures map[string]int
	lookups  map[string]int
}

// NewHostResolver creates a resolver that knows no hosts.
func NewHostResolver() *HostResolver {
	return &HostResolver{
		hosts:    make(map[string][]string),
		failures: make(map[string]int),
		lookups:  make(map[string]int),
	}
}

// AddHost makes host resolve to addrs.
func (r *HostResolver) AddHost(host string, addrs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts[host] = addrs
}

// FailFirst makes the first n lookups of host fail.
func (r *HostResolver) FailFirst(host string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[host] = n
}

// Lookups returns how often host was looked up.
func (r *HostResolver) Lookups(host string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups[host]
}

// LookupHost resolves host from the registered table.
func (r *HostResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lookups[host]++
	if r.lookups[host] <= r.failures[host] {
		return nil, &net.DNSError{Err: "temporary failure in name resolution", Name: host, IsTemporary: true}
	}
	if addrs, ok := r.hosts[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: fmt.Sprintf("no such host %s", host), Name: host, IsNotFound: true}
}

var _ ports.HostResolver = (*HostResolver)(nil)
