// Package network provides the steps that bring the machine online before
// anything is downloaded.
package network

import (
	"fmt"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/validation"
)

// Step IDs other providers depend on.
var (
	WaitStepID = compiler.MustNewStepID("network:wait")
	WifiStepID = compiler.MustNewStepID("network:wifi")
)

// Provider compiles the network section.
type Provider struct {
	prober *probe.Prober
	env    map[string]string
}

// NewProvider creates a new network provider.
func NewProvider(prober *probe.Prober) *Provider {
	return &Provider{
		prober: prober,
		env:    map[string]string{},
	}
}

// WithEnv sets the environment the Wi-Fi password is read from.
func (p *Provider) WithEnv(env map[string]string) *Provider {
	if env != nil {
		p.env = env
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "network"
}

// Compile emits network:wifi when a network is configured and network:wait
// when a host to wait for is configured.
func (p *Provider) Compile(ctx compiler.CompileContext) ([]compiler.Step, error) {
	cfg := ctx.Manifest().Network
	steps := make([]compiler.Step, 0, 2)

	var wifi *WifiStep
	if cfg.Wifi != nil {
		if err := validation.ValidateSSID(cfg.Wifi.SSID); err != nil {
			return nil, compiler.NewManifestInvalidError("invalid network.wifi.ssid", err).
				WithStepID(WifiStepID.String())
		}
		password := ""
		if cfg.Wifi.PasswordEnv != "" {
			var ok bool
			password, ok = p.env[cfg.Wifi.PasswordEnv]
			if !ok {
				return nil, compiler.NewManifestInvalidError(
					fmt.Sprintf("network.wifi.password_env names %s, which is not set", cfg.Wifi.PasswordEnv), nil).
					WithStepID(WifiStepID.String()).
					WithSuggestion(fmt.Sprintf("Export %s or add it to the env file.", cfg.Wifi.PasswordEnv))
			}
		}
		wifi = NewWifiStep(cfg.Wifi.SSID, password, p.prober)
		steps = append(steps, wifi)
	}

	if cfg.WaitFor != "" {
		if err := validation.ValidateHostname(cfg.WaitFor); err != nil {
			return nil, compiler.NewManifestInvalidError("invalid network.wait_for", err).
				WithStepID(WaitStepID.String())
		}
		wait := NewWaitStep(cfg.WaitFor, cfg.AttemptTimeout(), cfg.BudgetDuration(), p.prober)
		if wifi != nil {
			wait.deps = []compiler.StepID{WifiStepID}
		}
		steps = append(steps, wait)
	}

	return steps, nil
}

// Ensure Provider implements compiler.Provider.
var _ compiler.Provider = (*Provider)(nil)
