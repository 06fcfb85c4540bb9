package network

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// DefaultPollInterval is the pause between resolution attempts.
const DefaultPollInterval = time.Second

// WaitStep blocks until a host resolves or the budget is spent.
type WaitStep struct {
	id       compiler.StepID
	host     string
	timeout  time.Duration
	budget   time.Duration
	interval time.Duration
	deps     []compiler.StepID
	prober   *probe.Prober
}

// NewWaitStep creates a new WaitStep.
func NewWaitStep(host string, timeout, budget time.Duration, prober *probe.Prober) *WaitStep {
	return &WaitStep{
		id:       WaitStepID,
		host:     host,
		timeout:  timeout,
		budget:   budget,
		interval: DefaultPollInterval,
		prober:   prober,
	}
}

// WithPollInterval sets the pause between attempts.
func (s *WaitStep) WithPollInterval(d time.Duration) *WaitStep {
	s.interval = d
	return s
}

// ID returns the step identifier.
func (s *WaitStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *WaitStep) Description() string {
	return fmt.Sprintf("wait until %s resolves", s.host)
}

// DependsOn returns the step dependencies.
func (s *WaitStep) DependsOn() []compiler.StepID {
	return s.deps
}

// Retryable is false; the step spends its own budget.
func (s *WaitStep) Retryable() bool {
	return false
}

// Precondition reports whether the host already resolves.
func (s *WaitStep) Precondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsHostResolvable(ctx.Context(), s.host, s.timeout)
}

// Apply polls the resolver until the host resolves or the budget runs out.
func (s *WaitStep) Apply(ctx compiler.RunContext) error {
	deadline := time.Now().Add(s.budget)
	for attempt := 1; ; attempt++ {
		ok, err := s.prober.IsHostResolvable(ctx.Context(), s.host, s.timeout)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Add(s.interval).Before(deadline) {
			return compiler.Transient(fmt.Errorf("%s did not resolve within %s (%d attempts)", s.host, s.budget, attempt))
		}
		if err := sleep(ctx.Context(), s.interval); err != nil {
			return err
		}
	}
}

// Postcondition re-checks resolution.
func (s *WaitStep) Postcondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsHostResolvable(ctx.Context(), s.host, s.timeout)
}

// Plan returns the diff for this step.
func (s *WaitStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "network", s.host, "", fmt.Sprintf("resolvable within %s", s.budget)), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WifiStep connects NetworkManager to a wireless network.
type WifiStep struct {
	id       compiler.StepID
	ssid     string
	password string
	prober   *probe.Prober
}

// NewWifiStep creates a new WifiStep.
func NewWifiStep(ssid, password string, prober *probe.Prober) *WifiStep {
	return &WifiStep{
		id:       WifiStepID,
		ssid:     ssid,
		password: password,
		prober:   prober,
	}
}

// ID returns the step identifier.
func (s *WifiStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *WifiStep) Description() string {
	return fmt.Sprintf("connect to Wi-Fi network %s", s.ssid)
}

// DependsOn returns the step dependencies.
func (s *WifiStep) DependsOn() []compiler.StepID {
	return nil
}

// Retryable is true; association commonly fails on the first try.
func (s *WifiStep) Retryable() bool {
	return true
}

// Tools returns the executables the step needs.
func (s *WifiStep) Tools() []string {
	return []string{"nmcli"}
}

// Precondition reports whether the network is already the active connection.
func (s *WifiStep) Precondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsWifiActive(ctx.Context(), s.ssid)
}

// Apply runs nmcli device wifi connect. The password is kept out of the
// returned error.
func (s *WifiStep) Apply(ctx compiler.RunContext) error {
	args := []string{"device", "wifi", "connect", s.ssid}
	if s.password != "" {
		args = append(args, "password", s.password)
	}

	result, err := s.prober.Runner().Run(ctx.Context(), "nmcli", args...)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return compiler.Permanent(fmt.Errorf("nmcli: %w", err))
		}
		return fmt.Errorf("nmcli device wifi connect %s: %w", s.ssid, err)
	}
	if !result.Success() {
		redacted := ports.NewCommandError("nmcli", []string{"device", "wifi", "connect", s.ssid}, result)
		return compiler.Transient(redacted)
	}
	return nil
}

// Postcondition reports whether the connection is now active.
func (s *WifiStep) Postcondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsWifiActive(ctx.Context(), s.ssid)
}

// Plan returns the diff for this step.
func (s *WifiStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeAdd, "wifi", s.ssid, "", "connected"), nil
}

// Ensure steps implement the step interfaces.
var (
	_ compiler.Step     = (*WaitStep)(nil)
	_ compiler.Step     = (*WifiStep)(nil)
	_ compiler.ToolStep = (*WifiStep)(nil)
)
