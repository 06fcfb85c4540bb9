package pacman

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/domain/compiler"
	"github.com/felixgeelhaar/archstrap/internal/domain/config"
	"github.com/felixgeelhaar/archstrap/internal/probe"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// transientMarkers are pacman stderr fragments worth retrying: another
// transaction holds the lock, or a mirror could not be reached.
var transientMarkers = []string{
	"unable to lock database",
	"failed to synchronize",
	"failed retrieving file",
	"could not resolve host",
	"connection timed out",
	"operation too slow",
}

// PackageStep installs the packages of one feature.
type PackageStep struct {
	id       compiler.StepID
	feature  string
	packages []string
	critical bool
	deps     []compiler.StepID
	prober   *probe.Prober
}

// NewPackageStep creates a new PackageStep.
func NewPackageStep(feature config.Feature, deps []compiler.StepID, prober *probe.Prober) *PackageStep {
	return &PackageStep{
		id:       PackageStepID(feature.Name),
		feature:  feature.Name,
		packages: append([]string(nil), feature.Packages...),
		critical: feature.Critical,
		deps:     deps,
		prober:   prober,
	}
}

// ID returns the step identifier.
func (s *PackageStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *PackageStep) Description() string {
	return fmt.Sprintf("install %s packages: %s", s.feature, strings.Join(s.packages, " "))
}

// DependsOn returns the step dependencies.
func (s *PackageStep) DependsOn() []compiler.StepID {
	return s.deps
}

// Retryable is true; lock contention and mirror hiccups clear up.
func (s *PackageStep) Retryable() bool {
	return true
}

// ParallelSafe is false; pacman holds a global database lock.
func (s *PackageStep) ParallelSafe() bool {
	return false
}

// Critical reports whether a failure should halt the run.
func (s *PackageStep) Critical() bool {
	return s.critical
}

// Tools returns the executables the step needs.
func (s *PackageStep) Tools() []string {
	return []string{"pacman"}
}

// Packages returns the package list.
func (s *PackageStep) Packages() []string {
	return s.packages
}

// Precondition reports whether every package is installed.
func (s *PackageStep) Precondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsPackageInstalled(ctx.Context(), s.packages...)
}

// Apply installs the packages; --needed keeps already installed ones untouched.
func (s *PackageStep) Apply(ctx compiler.RunContext) error {
	args := append([]string{"-S", "--needed", "--noconfirm"}, s.packages...)
	_, err := commandutil.Run(ctx.Context(), s.prober.Runner(), "pacman", args...)
	return commandutil.ClassifyStderr(err, transientMarkers...)
}

// Postcondition re-checks that every package is installed.
func (s *PackageStep) Postcondition(ctx compiler.RunContext) (bool, error) {
	return s.prober.IsPackageInstalled(ctx.Context(), s.packages...)
}

// Plan lists the packages that are not installed yet.
func (s *PackageStep) Plan(ctx compiler.RunContext) (compiler.Diff, error) {
	missing, err := s.prober.MissingPackages(ctx.Context(), s.packages...)
	if err != nil {
		return compiler.Diff{}, err
	}
	if len(missing) == 0 {
		return compiler.NewDiff(compiler.DiffTypeNone, "packages", s.feature, "", ""), nil
	}
	return compiler.NewDiff(compiler.DiffTypeAdd, "packages", s.feature, "", strings.Join(missing, " ")), nil
}

// multilibSection is appended when pacman.conf has no commented-out section to enable.
const multilibSection = "\n[multilib]\nInclude = /etc/pacman.d/mirrorlist\n"

// MultilibStep enables the multilib repository and refreshes the sync databases.
type MultilibStep struct {
	id       compiler.StepID
	confPath string
	deps     []compiler.StepID
	prober   *probe.Prober
}

// NewMultilibStep creates a new MultilibStep.
func NewMultilibStep(confPath string, deps []compiler.StepID, prober *probe.Prober) *MultilibStep {
	return &MultilibStep{
		id:       MultilibStepID,
		confPath: confPath,
		deps:     append([]compiler.StepID(nil), deps...),
		prober:   prober,
	}
}

// ID returns the step identifier.
func (s *MultilibStep) ID() compiler.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *MultilibStep) Description() string {
	return "enable the multilib repository"
}

// DependsOn returns the step dependencies.
func (s *MultilibStep) DependsOn() []compiler.StepID {
	return s.deps
}

// Retryable is true so a locked database during the refresh is retried.
func (s *MultilibStep) Retryable() bool {
	return true
}

// ParallelSafe is false; the refresh takes the pacman lock.
func (s *MultilibStep) ParallelSafe() bool {
	return false
}

// Tools returns the executables the step needs.
func (s *MultilibStep) Tools() []string {
	return []string{"pacman"}
}

// Precondition reports whether [multilib] is already enabled.
func (s *MultilibStep) Precondition(_ compiler.RunContext) (bool, error) {
	return s.prober.IniHasKey(s.confPath, "multilib", "Include")
}

// Apply uncomments the stock [multilib] block, or appends one, then runs
// pacman -Sy so the new repository can be installed from.
func (s *MultilibStep) Apply(ctx compiler.RunContext) error {
	enabled, err := s.prober.IniHasKey(s.confPath, "multilib", "Include")
	if err != nil {
		return err
	}
	if !enabled {
		fs := s.prober.FileSystem()
		data, err := fs.ReadFile(s.confPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", s.confPath, err)
		}
		if err := fs.WriteFile(s.confPath, EnableMultilib(data), os.FileMode(0o644)); err != nil {
			return fmt.Errorf("write %s: %w", s.confPath, err)
		}
	}

	_, err = commandutil.Run(ctx.Context(), s.prober.Runner(), "pacman", "-Sy", "--noconfirm")
	return commandutil.ClassifyStderr(err, transientMarkers...)
}

// Postcondition re-checks the configuration.
func (s *MultilibStep) Postcondition(_ compiler.RunContext) (bool, error) {
	return s.prober.IniHasKey(s.confPath, "multilib", "Include")
}

// Plan returns the diff for this step.
func (s *MultilibStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	return compiler.NewDiff(compiler.DiffTypeModify, "pacman.conf", "[multilib]", "disabled", "enabled"), nil
}

// EnableMultilib returns conf with the [multilib] section enabled. The stock
// file ships it commented out as "#[multilib]" followed by "#Include = ...".
func EnableMultilib(conf []byte) []byte {
	lines := bytes.Split(conf, []byte("\n"))
	for i, line := range lines {
		if strings.TrimSpace(string(line)) != "#[multilib]" {
			continue
		}
		lines[i] = []byte("[multilib]")
		if i+1 < len(lines) {
			next := strings.TrimSpace(string(lines[i+1]))
			if strings.HasPrefix(next, "#Include") {
				lines[i+1] = []byte(strings.TrimPrefix(next, "#"))
				return bytes.Join(lines, []byte("\n"))
			}
		}
		lines = append(lines[:i+1], append([][]byte{[]byte("Include = /etc/pacman.d/mirrorlist")}, lines[i+1:]...)...)
		return bytes.Join(lines, []byte("\n"))
	}

	out := append([]byte(nil), conf...)
	return append(out, []byte(multilibSection)...)
}

// Ensure steps implement the step interfaces.
var (
	_ compiler.Step         = (*PackageStep)(nil)
	_ compiler.ParallelStep = (*PackageStep)(nil)
	_ compiler.CriticalStep = (*PackageStep)(nil)
	_ compiler.ToolStep     = (*PackageStep)(nil)
	_ compiler.Step         = (*MultilibStep)(nil)
	_ compiler.ToolStep     = (*MultilibStep)(nil)
)
