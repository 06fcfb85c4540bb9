package probe

import (
	"context"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// IsPackageInstalled reports whether every named package is installed.
// pacman -Q exits 0 when all are installed and 1 when any is missing.
func (p *Prober) IsPackageInstalled(ctx context.Context, names ...string) (bool, error) {
	if len(names) == 0 {
		return true, nil
	}

	args := append([]string{"-Q"}, names...)
	result, err := p.run(ctx, "pacman", args...)
	if err != nil {
		return false, err
	}

	switch result.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	}
	return false, unknownf("pacman -Q exited with code %d: %s", result.ExitCode, ports.LastLine(result.Stderr, 200))
}

// MissingPackages returns the subset of names pacman does not report as installed.
func (p *Prober) MissingPackages(ctx context.Context, names ...string) ([]string, error) {
	missing := make([]string, 0)
	for _, name := range names {
		ok, err := p.IsPackageInstalled(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
