package probe

import (
	"context"
	"strings"
	"time"
)

// IsHostResolvable reports whether host resolves within timeout.
// Resolution failures of any kind are a plain false; the caller decides
// whether to keep waiting.
func (p *Prober) IsHostResolvable(ctx context.Context, host string, timeout time.Duration) (bool, error) {
	if p.resolver == nil {
		return false, unknownf("no resolver configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	addrs, err := p.resolver.LookupHost(ctx, host)
	if err != nil {
		return false, nil
	}
	return len(addrs) > 0, nil
}

// IsNetworkConnected asks NetworkManager whether it has full connectivity.
func (p *Prober) IsNetworkConnected(ctx context.Context) (bool, error) {
	result, err := p.run(ctx, "nmcli", "-t", "-f", "STATE", "general")
	if err != nil {
		return false, err
	}
	if !result.Success() {
		return false, unknownf("nmcli exited with code %d", result.ExitCode)
	}
	return strings.TrimSpace(result.Stdout) == "connected", nil
}

// IsWifiActive reports whether NetworkManager has an active connection named ssid.
func (p *Prober) IsWifiActive(ctx context.Context, ssid string) (bool, error) {
	result, err := p.run(ctx, "nmcli", "-t", "-f", "NAME", "connection", "show", "--active")
	if err != nil {
		return false, err
	}
	if !result.Success() {
		return false, unknownf("nmcli exited with code %d", result.ExitCode)
	}
	for _, line := range strings.Split(result.Stdout, "\n") {
		if strings.TrimSpace(line) == ssid {
			return true, nil
		}
	}
	return false, nil
}
